package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fleethire/driverhub-go/internal/domain"
)

// CompanyStore implementation.

// ListCompanies returns every tenant. The distributor reads this fresh
// on each run; there is no pagination because the tenant count is small.
func (c *Client) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanies")
	defer span.End()

	var rows []domain.Company
	if err := c.restGet(ctx, "companies?order=created_at.asc", &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	return rows, nil
}

// GetCompany fetches one tenant.
func (c *Client) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompany")
	defer span.End()

	var rows []domain.Company
	query := fmt.Sprintf("companies?id=eq.%s&limit=1", url.QueryEscape(companyID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	return &rows[0], nil
}

// GetCompanyBySlug returns nil, nil when the slug is unclaimed.
func (c *Client) GetCompanyBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompanyBySlug")
	defer span.End()

	var rows []domain.Company
	query := fmt.Sprintf("companies?slug=eq.%s&limit=1", url.QueryEscape(slug))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateCompany inserts a tenant row.
func (c *Client) CreateCompany(ctx context.Context, company *domain.Company) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCompany")
	defer span.End()

	if err := c.restInsert(ctx, "companies", company); err != nil {
		return &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	return nil
}

// UpdateCompany patches the given columns and re-reads the row.
func (c *Client) UpdateCompany(ctx context.Context, companyID string, updates map[string]any) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCompany")
	defer span.End()

	query := fmt.Sprintf("companies?id=eq.%s", url.QueryEscape(companyID))
	if err := c.restPatch(ctx, query, updates); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	return c.GetCompany(ctx, companyID)
}

// DeleteCompany removes the tenant row itself. Memberships and scoped
// leads are torn down separately by the service layer.
func (c *Client) DeleteCompany(ctx context.Context, companyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCompany")
	defer span.End()

	query := fmt.Sprintf("companies?id=eq.%s", url.QueryEscape(companyID))
	if err := c.restDelete(ctx, query); err != nil {
		return &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	return nil
}
