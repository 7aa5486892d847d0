package supabase

import (
	"context"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

// BatchWriter implementation. One batch commits as a single bulk upsert
// request, which PostgREST runs in one transaction — batch-atomic, not
// run-atomic. The op ceiling lives here, not in the distributor.

// companyLeadRow maps company_leads columns.
type companyLeadRow struct {
	CompanyID      string `json:"company_id"`
	OriginalLeadID string `json:"original_lead_id"`
	IsPlatformLead bool   `json:"is_platform_lead"`
	DistributedAt  string `json:"distributed_at"`
	Source         string `json:"source"`
	domain.Submission
}

// MaxOps returns the adapter-owned ceiling on operations per atomic
// batch.
func (c *Client) MaxOps() int {
	return c.maxBatchOps
}

// Begin opens an empty batch.
func (c *Client) Begin() port.Batch {
	return &leadBatch{client: c}
}

type leadBatch struct {
	client *Client
	rows   []companyLeadRow
}

// Upsert queues one company-lead copy. Keyed on
// (company_id, original_lead_id), so re-distribution refreshes the
// existing copy instead of duplicating it.
func (b *leadBatch) Upsert(lead domain.CompanyLead) {
	b.rows = append(b.rows, companyLeadRow{
		CompanyID:      lead.CompanyID,
		OriginalLeadID: lead.OriginalLeadID,
		IsPlatformLead: lead.IsPlatformLead,
		DistributedAt:  lead.DistributedAt.UTC().Format(time.RFC3339),
		Source:         lead.Source,
		Submission:     lead.Submission,
	})
}

// Size reports queued operations.
func (b *leadBatch) Size() int {
	return len(b.rows)
}

// Commit writes the whole batch in one transaction. An empty batch is a
// no-op. After a successful commit the batch must not be reused.
func (b *leadBatch) Commit(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "Supabase.CommitLeadBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.ops", len(b.rows)))

	err := b.client.restUpsert(ctx, "company_leads", "company_id,original_lead_id", b.rows)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/company_leads", Err: err}
	}
	return nil
}
