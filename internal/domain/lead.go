package domain

import "time"

// Lead is a pooled prospective-driver record produced by the public
// submission pipeline. Distribution only reads it; the source record is
// never mutated or removed (fan-out, not move).
type Lead struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Submission
}

// CompanyLead is a per-company scoped copy of a pool lead. Keyed by
// (company_id, original_lead_id) so a re-run refreshes the copy instead
// of duplicating it.
type CompanyLead struct {
	CompanyID      string    `json:"company_id"`
	OriginalLeadID string    `json:"original_lead_id"`
	IsPlatformLead bool      `json:"is_platform_lead"`
	DistributedAt  time.Time `json:"distributed_at"`
	Source         string    `json:"source"`
	Submission
}

// DistributionReport is returned to the super admin for audit.
type DistributionReport struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// DistributionMetrics is returned by GET /v1/metrics/distribution.
type DistributionMetrics struct {
	LeadsToPaidPlans int64  `json:"leadsToPaidPlans"`
	LeadsToFreePlans int64  `json:"leadsToFreePlans"`
	TotalLeadCopies  int64  `json:"totalLeadCopies"`
	BatchesCommitted int64  `json:"batchesCommitted"`
	Period           string `json:"period"`
}
