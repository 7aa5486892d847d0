package handler

import (
	"net/http"
	"time"

	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/service"

	"go.uber.org/zap"
)

// DistributionHandler exposes the lead fan-out run and its metrics.
type DistributionHandler struct {
	distributor *service.LeadDistributor
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewDistributionHandler creates the distribution handler.
func NewDistributionHandler(distributor *service.LeadDistributor, metrics *observability.Metrics, logger *zap.Logger) *DistributionHandler {
	return &DistributionHandler{
		distributor: distributor,
		metrics:     metrics,
		logger:      logger,
	}
}

// Distribute handles POST /v1/leads/distribute (super admin only). The
// run is synchronous: the response carries the per-company audit report.
func (h *DistributionHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.distributor.Distribute(r.Context())
	h.metrics.RecordRequestDuration("distribute_leads", time.Since(start))

	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Snapshot handles GET /v1/metrics/distribution.
func (h *DistributionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.GetDistributionSnapshot())
}
