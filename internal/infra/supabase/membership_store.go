package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fleethire/driverhub-go/internal/domain"
)

// MembershipStore implementation — the (user, company, role) relation.
// There is no store-side uniqueness constraint on (user_id, company_id);
// callers do a check-then-insert and live with the race.

// ListByUser returns all live memberships for a user.
func (c *Client) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMembershipsByUser")
	defer span.End()

	var rows []domain.Membership
	query := fmt.Sprintf("memberships?user_id=eq.%s&order=created_at.asc", url.QueryEscape(userID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	return rows, nil
}

// ListByCompany returns all memberships of a company.
func (c *Client) ListByCompany(ctx context.Context, companyID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMembershipsByCompany")
	defer span.End()

	var rows []domain.Membership
	query := fmt.Sprintf("memberships?company_id=eq.%s&order=created_at.asc", url.QueryEscape(companyID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	return rows, nil
}

// Get fetches one membership row by id.
func (c *Client) Get(ctx context.Context, membershipID string) (*domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMembership")
	defer span.End()

	var rows []domain.Membership
	query := fmt.Sprintf("memberships?id=eq.%s&limit=1", url.QueryEscape(membershipID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "membership", ID: membershipID}
	}
	return &rows[0], nil
}

// FindByUserAndCompany returns nil, nil when no membership exists.
func (c *Client) FindByUserAndCompany(ctx context.Context, userID, companyID string) (*domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindMembership")
	defer span.End()

	var rows []domain.Membership
	query := fmt.Sprintf("memberships?user_id=eq.%s&company_id=eq.%s&limit=1",
		url.QueryEscape(userID), url.QueryEscape(companyID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Create inserts a membership row. The database webhook on this table
// re-fires the claims synchronizer.
func (c *Client) Create(ctx context.Context, m *domain.Membership) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateMembership")
	defer span.End()

	if err := c.restInsert(ctx, "memberships", m); err != nil {
		return &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	return nil
}

// Delete removes one membership row.
func (c *Client) Delete(ctx context.Context, membershipID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMembership")
	defer span.End()

	query := fmt.Sprintf("memberships?id=eq.%s", url.QueryEscape(membershipID))
	if err := c.restDelete(ctx, query); err != nil {
		return &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	return nil
}

// DeleteByCompany removes every membership of a company (tenant
// teardown). Each deleted row fires its own reconciliation event.
func (c *Client) DeleteByCompany(ctx context.Context, companyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMembershipsByCompany")
	defer span.End()

	query := fmt.Sprintf("memberships?company_id=eq.%s", url.QueryEscape(companyID))
	if err := c.restDelete(ctx, query); err != nil {
		return &domain.ErrExternalService{Service: "supabase/memberships", Err: err}
	}
	return nil
}
