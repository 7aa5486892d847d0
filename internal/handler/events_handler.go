// Package handler wires HTTP routing, authentication middleware and the
// webhook event endpoints for the recruiting API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/infra/resilience"
	"github.com/fleethire/driverhub-go/internal/service"

	"go.uber.org/zap"
)

// EventsHandler receives the document store's database webhooks. Every
// endpoint acknowledges with 202 once the event is processed — success
// or not. The dispatcher never retries, so a failed reaction is logged
// and left for the next mutation of the same row to repair; returning an
// error status would buy nothing.
type EventsHandler struct {
	syncer   *service.ClaimsSyncer
	resolver *service.IdentityResolver
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewEventsHandler creates the webhook event handler.
func NewEventsHandler(syncer *service.ClaimsSyncer, resolver *service.IdentityResolver, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		syncer:   syncer,
		resolver: resolver,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

type eventAck struct {
	Status   string `json:"status"`
	DriverID string `json:"driver_id,omitempty"`
}

// HandleMembershipEvent reacts to any write on the memberships table by
// reconciling the affected user's claims.
func (h *EventsHandler) HandleMembershipEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.ChangeEvent
	if !decodeBody(w, r, &ev) {
		return
	}

	if err := h.bulkhead.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy")
		return
	}
	defer h.bulkhead.Release()

	start := time.Now()
	err := h.syncer.SyncFromEvent(r.Context(), ev)
	h.metrics.RecordRequestDuration("claims_sync", time.Since(start))

	if err != nil {
		// Acknowledged anyway: the dispatcher would not retry, and the
		// next membership write for this user repairs the claims.
		h.logger.Error("claims sync failed",
			zap.String("event_type", ev.Type),
			zap.Error(err),
		)
	}
	writeJSON(w, http.StatusAccepted, eventAck{Status: "accepted"})
}

// HandleApplicationEvent reacts to new company-scoped applications.
func (h *EventsHandler) HandleApplicationEvent(w http.ResponseWriter, r *http.Request) {
	h.handleSubmissionEvent(w, r, "application")
}

// HandleLeadEvent reacts to new pooled leads.
func (h *EventsHandler) HandleLeadEvent(w http.ResponseWriter, r *http.Request) {
	h.handleSubmissionEvent(w, r, "lead")
}

func (h *EventsHandler) handleSubmissionEvent(w http.ResponseWriter, r *http.Request, source string) {
	var ev domain.ChangeEvent
	if !decodeBody(w, r, &ev) {
		return
	}

	// Only creations carry a new submission; edits and deletes of intake
	// rows never flow back into the master profile.
	if ev.Type != domain.EventInsert {
		writeJSON(w, http.StatusAccepted, eventAck{Status: "ignored"})
		return
	}
	if len(ev.Record) == 0 {
		writeError(w, http.StatusBadRequest, "event carries no record")
		return
	}

	var sub domain.Submission
	if err := json.Unmarshal(ev.Record, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "malformed submission record")
		return
	}

	if err := h.bulkhead.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy")
		return
	}
	defer h.bulkhead.Release()

	start := time.Now()
	driverID, err := h.resolver.SyncSubmission(r.Context(), sub, source)
	h.metrics.RecordRequestDuration("identity_sync", time.Since(start))

	if err != nil {
		h.logger.Error("identity sync failed",
			zap.String("source", source),
			zap.Error(err),
		)
		writeJSON(w, http.StatusAccepted, eventAck{Status: "accepted"})
		return
	}
	writeJSON(w, http.StatusAccepted, eventAck{Status: "accepted", DriverID: driverID})
}
