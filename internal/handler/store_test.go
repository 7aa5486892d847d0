package handler_test

import (
	"context"
	"fmt"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/port"
)

// fakeStore implements every storage port in one struct, the way the
// real Supabase adapter does.
type fakeStore struct {
	users       map[string]*domain.IdentityUser
	memberships []domain.Membership
	companies   []domain.Company
	profiles    map[string]*domain.DriverProfile
	pool        []domain.Lead
	invites     map[string]*domain.Invite

	claims       map[string]domain.Claims
	mergedFields map[string]map[string]any
	committed    []domain.CompanyLead
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]*domain.IdentityUser{},
		profiles:     map[string]*domain.DriverProfile{},
		invites:      map[string]*domain.Invite{},
		claims:       map[string]domain.Claims{},
		mergedFields: map[string]map[string]any{},
	}
}

// --- port.IdentityProvider ---

func (s *fakeStore) GetUser(_ context.Context, userID string) (*domain.IdentityUser, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*domain.IdentityUser, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (s *fakeStore) CreateUser(_ context.Context, email, displayName, phone string) (*domain.IdentityUser, error) {
	u := &domain.IdentityUser{
		ID:          fmt.Sprintf("user-%d", len(s.users)+1),
		Email:       email,
		DisplayName: displayName,
		Phone:       phone,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeStore) SetClaims(_ context.Context, userID string, claims domain.Claims) error {
	s.claims[userID] = claims
	return nil
}

// --- port.MembershipStore ---

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByCompany(_ context.Context, companyID string) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, m := range s.memberships {
		if m.CompanyID == companyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, membershipID string) (*domain.Membership, error) {
	for i := range s.memberships {
		if s.memberships[i].ID == membershipID {
			return &s.memberships[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "membership", ID: membershipID}
}

func (s *fakeStore) FindByUserAndCompany(_ context.Context, userID, companyID string) (*domain.Membership, error) {
	for i := range s.memberships {
		if s.memberships[i].UserID == userID && s.memberships[i].CompanyID == companyID {
			return &s.memberships[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, m *domain.Membership) error {
	s.memberships = append(s.memberships, *m)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, membershipID string) error {
	for i := range s.memberships {
		if s.memberships[i].ID == membershipID {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeStore) DeleteByCompany(_ context.Context, companyID string) error {
	var kept []domain.Membership
	for _, m := range s.memberships {
		if m.CompanyID != companyID {
			kept = append(kept, m)
		}
	}
	s.memberships = kept
	return nil
}

// --- port.CompanyStore ---

func (s *fakeStore) ListCompanies(_ context.Context) ([]domain.Company, error) {
	return s.companies, nil
}

func (s *fakeStore) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	for i := range s.companies {
		if s.companies[i].ID == companyID {
			return &s.companies[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
}

func (s *fakeStore) GetCompanyBySlug(_ context.Context, slug string) (*domain.Company, error) {
	for i := range s.companies {
		if s.companies[i].Slug == slug {
			return &s.companies[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateCompany(_ context.Context, c *domain.Company) error {
	s.companies = append(s.companies, *c)
	return nil
}

func (s *fakeStore) UpdateCompany(_ context.Context, companyID string, _ map[string]any) (*domain.Company, error) {
	return s.GetCompany(context.Background(), companyID)
}

func (s *fakeStore) DeleteCompany(_ context.Context, companyID string) error {
	for i := range s.companies {
		if s.companies[i].ID == companyID {
			s.companies = append(s.companies[:i], s.companies[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- port.ProfileStore ---

func (s *fakeStore) GetProfile(_ context.Context, driverID string) (*domain.DriverProfile, error) {
	if p, ok := s.profiles[driverID]; ok {
		return p, nil
	}
	return nil, &domain.ErrNotFound{Resource: "driver_profile", ID: driverID}
}

func (s *fakeStore) MergeProfile(_ context.Context, driverID string, fields map[string]any) error {
	s.mergedFields[driverID] = fields
	return nil
}

// --- port.LeadStore ---

func (s *fakeStore) RecentLeads(_ context.Context, limit int) ([]domain.Lead, error) {
	if len(s.pool) > limit {
		return s.pool[:limit], nil
	}
	return s.pool, nil
}

func (s *fakeStore) DeleteCompanyLeads(_ context.Context, _ string) error {
	return nil
}

// --- port.BatchWriter ---

func (s *fakeStore) MaxOps() int { return 450 }

func (s *fakeStore) Begin() port.Batch { return &fakeBatch{store: s} }

type fakeBatch struct {
	store *fakeStore
	ops   []domain.CompanyLead
}

func (b *fakeBatch) Upsert(lead domain.CompanyLead) { b.ops = append(b.ops, lead) }
func (b *fakeBatch) Size() int                      { return len(b.ops) }

func (b *fakeBatch) Commit(_ context.Context) error {
	b.store.committed = append(b.store.committed, b.ops...)
	return nil
}

// --- port.InviteStore ---

func (s *fakeStore) CreateInvite(_ context.Context, inv *domain.Invite) error {
	s.invites[inv.ID] = inv
	return nil
}

func (s *fakeStore) GetInvite(_ context.Context, inviteID string) (*domain.Invite, error) {
	if inv, ok := s.invites[inviteID]; ok {
		return inv, nil
	}
	return nil, &domain.ErrNotFound{Resource: "invite", ID: inviteID}
}

func (s *fakeStore) MarkInviteUsed(_ context.Context, inviteID string) error {
	if inv, ok := s.invites[inviteID]; ok {
		inv.Used = true
	}
	return nil
}
