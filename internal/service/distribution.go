package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var distTracer = otel.Tracer("service/distribution")

// DistributorConfig holds the per-run quota model.
type DistributorConfig struct {
	// PoolLimit caps the most-recent pool slice fetched per run,
	// bounding worst-case fan-out cost.
	PoolLimit int
	// Per-run copy caps by plan type.
	PaidPlanCap int
	FreePlanCap int
}

// LeadDistributor fans the shared lead pool out to every tenant under
// per-plan quotas. Copies are merge-upserts keyed per (company, lead),
// so a re-run refreshes prior copies instead of duplicating them. The
// source pool is replayed, never drained.
type LeadDistributor struct {
	companies port.CompanyStore
	leads     port.LeadStore
	batches   port.BatchWriter
	cfg       DistributorConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewLeadDistributor creates a lead distributor.
func NewLeadDistributor(companies port.CompanyStore, leads port.LeadStore, batches port.BatchWriter, cfg DistributorConfig, metrics *observability.Metrics, logger *zap.Logger) *LeadDistributor {
	return &LeadDistributor{
		companies: companies,
		leads:     leads,
		batches:   batches,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Distribute runs one fan-out pass and returns per-company counts for
// audit. Writes are grouped into atomic batches flushed below the
// storage adapter's op ceiling; batches already committed stay durable
// even when a later batch in the same run fails (batch-atomic, not
// run-atomic).
func (d *LeadDistributor) Distribute(ctx context.Context) (*domain.DistributionReport, error) {
	ctx, span := distTracer.Start(ctx, "LeadDistributor.Distribute")
	defer span.End()

	companies, err := d.companies.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	pool, err := d.leads.RecentLeads(ctx, d.cfg.PoolLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch lead pool: %w", err)
	}

	span.SetAttributes(
		attribute.Int("companies", len(companies)),
		attribute.Int("pool_size", len(pool)),
	)

	maxOps := d.batches.MaxOps()
	batch := d.batches.Begin()
	now := time.Now().UTC()

	details := make([]string, 0, len(companies))
	total := 0

	for _, company := range companies {
		quota := d.quotaFor(company.PlanType)
		count := 0

		// The same slice is replayed per company in recency order; one
		// pool lead may be copied into many tenants.
		for _, lead := range pool {
			if count >= quota {
				break
			}
			if batch.Size() >= maxOps {
				if err := d.flush(ctx, batch); err != nil {
					return nil, err
				}
				batch = d.batches.Begin()
			}

			batch.Upsert(domain.CompanyLead{
				CompanyID:      company.ID,
				OriginalLeadID: lead.ID,
				IsPlatformLead: true,
				DistributedAt:  now,
				Source:         lead.Source,
				Submission:     lead.Submission,
			})
			count++
		}

		d.metrics.AddLeadsDistributed(company.PlanType, count)
		details = append(details, fmt.Sprintf("%s: %d leads", company.CompanyName, count))
		total += count
	}

	if err := d.flush(ctx, batch); err != nil {
		return nil, err
	}

	d.logger.Info("lead distribution complete",
		zap.Int("companies", len(companies)),
		zap.Int("pool_size", len(pool)),
		zap.Int("copies", total),
	)

	return &domain.DistributionReport{
		Message: fmt.Sprintf("distributed %d leads to %d companies", total, len(companies)),
		Details: details,
	}, nil
}

func (d *LeadDistributor) flush(ctx context.Context, batch port.Batch) error {
	if batch.Size() == 0 {
		return nil
	}
	if err := batch.Commit(ctx); err != nil {
		// Batches already committed in this run stay durable.
		return fmt.Errorf("commit lead batch: %w", err)
	}
	d.metrics.IncrBatchFlush()
	return nil
}

// quotaFor maps a plan type to its per-run copy cap. Unknown plans get
// the free quota.
func (d *LeadDistributor) quotaFor(planType string) int {
	if planType == domain.PlanPaid {
		return d.cfg.PaidPlanCap
	}
	return d.cfg.FreePlanCap
}
