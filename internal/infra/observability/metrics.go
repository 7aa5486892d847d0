package observability

import (
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the recruiting API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	claimsSyncs       *prometheus.CounterVec
	identityConflicts prometheus.Counter
	leadsDistributed  *prometheus.CounterVec
	batchFlushes      prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "driverhub_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverhub_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverhub_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverhub_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		claimsSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverhub_claims_syncs_total",
				Help: "Total claims reconciliation passes by result.",
			},
			[]string{"result"},
		),
		identityConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "driverhub_identity_conflicts_total",
				Help: "Create-user conflicts resolved by compensating lookup.",
			},
		),
		leadsDistributed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverhub_leads_distributed_total",
				Help: "Total lead copies written, by company plan.",
			},
			[]string{"plan"},
		),
		batchFlushes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "driverhub_batch_flushes_total",
				Help: "Atomic batches committed by the distributor.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrClaimsSync counts one reconciliation pass ("success" or "error").
func (m *Metrics) IncrClaimsSync(result string) {
	m.claimsSyncs.WithLabelValues(result).Inc()
}

// IncrIdentityConflict counts a create-user race resolved by re-lookup.
func (m *Metrics) IncrIdentityConflict() {
	m.identityConflicts.Inc()
}

// AddLeadsDistributed adds distributed lead copies for a plan type.
func (m *Metrics) AddLeadsDistributed(plan string, n int) {
	m.leadsDistributed.WithLabelValues(plan).Add(float64(n))
}

// IncrBatchFlush counts one committed batch.
func (m *Metrics) IncrBatchFlush() {
	m.batchFlushes.Inc()
}

// GetDistributionSnapshot returns a snapshot of distribution metrics for
// the GET /v1/metrics/distribution endpoint.
func (m *Metrics) GetDistributionSnapshot() *domain.DistributionMetrics {
	paid := getCounterValue(m.leadsDistributed, domain.PlanPaid)
	free := getCounterValue(m.leadsDistributed, domain.PlanFree)

	batches := float64(0)
	dm := &dto.Metric{}
	if err := m.batchFlushes.Write(dm); err == nil && dm.Counter != nil && dm.Counter.Value != nil {
		batches = *dm.Counter.Value
	}

	return &domain.DistributionMetrics{
		LeadsToPaidPlans: int64(paid),
		LeadsToFreePlans: int64(free),
		TotalLeadCopies:  int64(paid + free),
		BatchesCommitted: int64(batches),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
