package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var memberTracer = otel.Tracer("service/members")

const inviteTokenBcryptCost = 10

// MemberService manages company memberships and self-invites. It only
// writes the membership relation; the claims synchronizer reacts to
// those writes through the store's webhook, never through a direct call
// from here.
type MemberService struct {
	identity    port.IdentityProvider
	memberships port.MembershipStore
	companies   port.CompanyStore
	invites     port.InviteStore
	inviteTTL   time.Duration
	logger      *zap.Logger
}

// NewMemberService creates a member service.
func NewMemberService(identity port.IdentityProvider, memberships port.MembershipStore, companies port.CompanyStore, invites port.InviteStore, inviteTTL time.Duration, logger *zap.Logger) *MemberService {
	return &MemberService{
		identity:    identity,
		memberships: memberships,
		companies:   companies,
		invites:     invites,
		inviteTTL:   inviteTTL,
		logger:      logger,
	}
}

// AddMemberRequest is the payload for adding a user to a company.
type AddMemberRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

// AddMember finds or creates the identity account for the email and
// inserts a membership row. Duplicate (user, company) pairs are
// rejected by a check-then-insert; the check is not atomic with the
// insert, so concurrent joins can still produce duplicate rows — the
// claims rebuild tolerates them.
func (s *MemberService) AddMember(ctx context.Context, companyID string, req *AddMemberRequest) (*domain.Membership, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.AddMember")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "must not be empty"}
	}
	if !domain.ValidRole(req.Role) {
		return nil, &domain.ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", req.Role)}
	}

	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, email, req.DisplayName, req.Phone)
	if err != nil {
		return nil, err
	}

	return s.createMembership(ctx, user.ID, companyID, req.Role)
}

// ListMembers returns a company's membership rows.
func (s *MemberService) ListMembers(ctx context.Context, companyID string) ([]domain.Membership, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.ListMembers")
	defer span.End()

	return s.memberships.ListByCompany(ctx, companyID)
}

// RemoveMember deletes one membership row after confirming it belongs
// to the given company; the delete event re-fires claims reconciliation
// for the affected user. A membership of another company is reported as
// not found, so a tenant admin learns nothing about foreign rows.
func (s *MemberService) RemoveMember(ctx context.Context, companyID, membershipID string) error {
	ctx, span := memberTracer.Start(ctx, "MemberService.RemoveMember")
	defer span.End()

	m, err := s.memberships.Get(ctx, membershipID)
	if err != nil {
		return err
	}
	if m.CompanyID != companyID {
		return &domain.ErrNotFound{Resource: "membership", ID: membershipID}
	}

	if err := s.memberships.Delete(ctx, membershipID); err != nil {
		return err
	}
	s.logger.Info("membership removed",
		zap.String("membership_id", membershipID),
		zap.String("company_id", companyID),
	)
	return nil
}

// InviteResult carries the raw token exactly once; only its hash is
// stored.
type InviteResult struct {
	Invite domain.Invite `json:"invite"`
	Token  string        `json:"token"`
}

// CreateInvite issues a self-invite for an email to join a company.
func (s *MemberService) CreateInvite(ctx context.Context, companyID, email, role string) (*InviteResult, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.CreateInvite")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "must not be empty"}
	}
	if !domain.ValidRole(role) {
		return nil, &domain.ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}
	token := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), inviteTokenBcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash invite token: %w", err)
	}

	inv := &domain.Invite{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Email:     email,
		Role:      role,
		TokenHash: string(hash),
		ExpiresAt: time.Now().UTC().Add(s.inviteTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.invites.CreateInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invite: %w", err)
	}

	s.logger.Info("invite created",
		zap.String("invite_id", inv.ID),
		zap.String("company_id", companyID),
		zap.String("role", role),
	)

	result := &InviteResult{Invite: *inv, Token: token}
	result.Invite.TokenHash = ""
	return result, nil
}

// AcceptInvite redeems an invite: token check, user find-or-create,
// membership insert, invite burned. Expired, used or mismatched tokens
// all collapse to the same ErrInvalidInvite so callers learn nothing
// about which part failed.
func (s *MemberService) AcceptInvite(ctx context.Context, inviteID, token string) (*domain.Membership, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.AcceptInvite")
	defer span.End()

	inv, err := s.invites.GetInvite(ctx, inviteID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, &domain.ErrInvalidInvite{}
		}
		return nil, err
	}
	if inv.Used || time.Now().After(inv.ExpiresAt) {
		return nil, &domain.ErrInvalidInvite{}
	}
	if bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(token)) != nil {
		return nil, &domain.ErrInvalidInvite{}
	}

	user, err := s.findOrCreateUser(ctx, inv.Email, "", "")
	if err != nil {
		return nil, err
	}

	membership, err := s.createMembership(ctx, user.ID, inv.CompanyID, inv.Role)
	if err != nil {
		return nil, err
	}

	if err := s.invites.MarkInviteUsed(ctx, inv.ID); err != nil {
		// Membership already stands; a reusable invite is the lesser
		// problem and the next accept attempt hits the duplicate check.
		s.logger.Warn("failed to burn invite",
			zap.String("invite_id", inv.ID),
			zap.Error(err),
		)
	}
	return membership, nil
}

// findOrCreateUser mirrors the resolver's compensating-read pattern for
// the admin path.
func (s *MemberService) findOrCreateUser(ctx context.Context, email, displayName, phone string) (*domain.IdentityUser, error) {
	user, err := s.identity.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	user, err = s.identity.CreateUser(ctx, email, displayName, phone)
	if err == nil {
		return user, nil
	}
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		user, err = s.identity.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("re-resolve after conflict: %w", err)
		}
		return user, nil
	}
	return nil, fmt.Errorf("create account: %w", err)
}

func (s *MemberService) createMembership(ctx context.Context, userID, companyID, role string) (*domain.Membership, error) {
	existing, err := s.memberships.FindByUserAndCompany(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("check existing membership: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "user is already a member of this company"}
	}

	membership := &domain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	s.logger.Info("membership created",
		zap.String("membership_id", membership.ID),
		zap.String("company_id", companyID),
		zap.String("role", role),
	)
	return membership, nil
}
