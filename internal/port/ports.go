// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/fleethire/driverhub-go/internal/domain"
)

// IdentityProvider is the external account service: lookup/creation of
// accounts and management of the claims payload embedded in session
// tokens. Implementations must distinguish "not found" (ErrNotFound)
// and "email already exists" (ErrConflict) from other failures — the
// resolver's find-or-create and compensating-read depend on it.
type IdentityProvider interface {
	GetUser(ctx context.Context, userID string) (*domain.IdentityUser, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.IdentityUser, error)
	CreateUser(ctx context.Context, email, displayName, phone string) (*domain.IdentityUser, error)
	// SetClaims overwrites the user's claims payload entirely.
	SetClaims(ctx context.Context, userID string, claims domain.Claims) error
}

// MembershipStore is the durable (user, company, role) relation.
type MembershipStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Membership, error)
	// Get fetches one membership row by id.
	Get(ctx context.Context, membershipID string) (*domain.Membership, error)
	// FindByUserAndCompany returns nil, nil when no row exists.
	FindByUserAndCompany(ctx context.Context, userID, companyID string) (*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, membershipID string) error
	DeleteByCompany(ctx context.Context, companyID string) error
}

// CompanyStore manages recruiting tenants.
type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	// GetCompanyBySlug returns nil, nil when the slug is free.
	GetCompanyBySlug(ctx context.Context, slug string) (*domain.Company, error)
	CreateCompany(ctx context.Context, c *domain.Company) error
	UpdateCompany(ctx context.Context, companyID string, updates map[string]any) (*domain.Company, error)
	DeleteCompany(ctx context.Context, companyID string) error
}

// ProfileStore holds master driver profiles keyed by identity-provider id.
type ProfileStore interface {
	GetProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error)
	// MergeProfile upserts the given fields into the profile. Only the
	// provided fields are written; absent fields keep their prior values.
	MergeProfile(ctx context.Context, driverID string, fields map[string]any) error
}

// LeadStore reads the shared pool and manages per-company copies.
type LeadStore interface {
	// RecentLeads returns at most limit leads, newest first.
	RecentLeads(ctx context.Context, limit int) ([]domain.Lead, error)
	DeleteCompanyLeads(ctx context.Context, companyID string) error
}

// BatchWriter opens size-bounded atomic batches of company-lead
// upserts. MaxOps is the adapter-owned ceiling on operations per
// atomic commit (kept a safety margin under the storage engine's hard
// limit); callers must flush before exceeding it.
type BatchWriter interface {
	MaxOps() int
	Begin() Batch
}

// Batch collects upserts and commits them atomically. A committed batch
// stays durable regardless of what happens to later batches.
type Batch interface {
	Upsert(lead domain.CompanyLead)
	Size() int
	Commit(ctx context.Context) error
}

// InviteStore persists self-invite records.
type InviteStore interface {
	CreateInvite(ctx context.Context, inv *domain.Invite) error
	GetInvite(ctx context.Context, inviteID string) (*domain.Invite, error)
	MarkInviteUsed(ctx context.Context, inviteID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
