package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fleethire/driverhub-go/internal/domain"
)

// LeadStore implementation. The pool table is append-only from this
// subsystem's point of view: distribution reads a capped recent slice
// and never mutates or drains the source rows.

// leadRow maps leads table columns.
type leadRow struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
	domain.Submission
}

// RecentLeads returns at most limit pool leads, newest first.
func (c *Client) RecentLeads(ctx context.Context, limit int) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.RecentLeads")
	defer span.End()

	var rows []leadRow
	query := fmt.Sprintf("leads?order=created_at.desc&limit=%d", limit)
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/leads", Err: err}
	}

	leads := make([]domain.Lead, 0, len(rows))
	for _, r := range rows {
		lead := domain.Lead{
			ID:         r.ID,
			Source:     r.Source,
			Submission: r.Submission,
		}
		lead.CreatedAt = parseTimestamp(r.CreatedAt)
		leads = append(leads, lead)
	}
	return leads, nil
}

// DeleteCompanyLeads removes a company's scoped copies (tenant teardown).
func (c *Client) DeleteCompanyLeads(ctx context.Context, companyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCompanyLeads")
	defer span.End()

	query := fmt.Sprintf("company_leads?company_id=eq.%s", url.QueryEscape(companyID))
	if err := c.restDelete(ctx, query); err != nil {
		return &domain.ErrExternalService{Service: "supabase/company_leads", Err: err}
	}
	return nil
}
