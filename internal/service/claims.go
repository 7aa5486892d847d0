// Package service — business logic for claims reconciliation, identity
// resolution, lead distribution and tenant administration.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var claimsTracer = otel.Tracer("service/claims")

// ClaimsSyncer keeps the identity provider's claims payload consistent
// with the membership relation. Each pass is a pure function of the
// current membership snapshot: rerunning it with unchanged input yields
// identical output. Invocations are at-least-once per membership
// mutation and never transactional with the triggering write; a failed
// pass is logged and left for the next mutation to repair.
type ClaimsSyncer struct {
	identity    port.IdentityProvider
	memberships port.MembershipStore
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewClaimsSyncer creates a claims syncer.
func NewClaimsSyncer(identity port.IdentityProvider, memberships port.MembershipStore, metrics *observability.Metrics, logger *zap.Logger) *ClaimsSyncer {
	return &ClaimsSyncer{
		identity:    identity,
		memberships: memberships,
		metrics:     metrics,
		logger:      logger,
	}
}

// SyncFromEvent resolves the affected user from a membership change
// event — after-state first, before-state on delete — and runs one
// reconciliation pass. Events without a user id are a no-op.
func (s *ClaimsSyncer) SyncFromEvent(ctx context.Context, ev domain.ChangeEvent) error {
	userID := eventUserID(ev.Record)
	if userID == "" {
		userID = eventUserID(ev.OldRecord)
	}
	if userID == "" {
		s.logger.Debug("claims sync: event carries no user id, skipping",
			zap.String("type", ev.Type),
		)
		return nil
	}
	return s.Sync(ctx, userID)
}

// Sync rebuilds the user's authorization map from the live membership
// rows and overwrites the identity provider's claims with it. Only the
// globalRole entry of the previous claims survives — membership churn
// must never demote or erase platform elevation. Already-issued session
// tokens keep the old map until the caller refreshes; convergence is
// eventual by design.
func (s *ClaimsSyncer) Sync(ctx context.Context, userID string) error {
	ctx, span := claimsTracer.Start(ctx, "ClaimsSyncer.Sync")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			// Account is gone; there are no claims left to reconcile.
			s.logger.Warn("claims sync: user no longer exists",
				zap.String("user_id", userID),
			)
			return nil
		}
		s.metrics.IncrClaimsSync("error")
		return fmt.Errorf("fetch current claims: %w", err)
	}

	claims := domain.Claims{Roles: map[string]string{}}
	if global := user.Claims.GlobalRole(); global != "" {
		claims.Roles[domain.GlobalRoleKey] = global
	}

	// Fresh read: the triggering write has already committed, so this
	// snapshot includes it. An overlapping mutation can still make this
	// pass momentarily stale; its own event re-fires us and converges
	// the map within one extra pass.
	rows, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		s.metrics.IncrClaimsSync("error")
		return fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range rows {
		if m.CompanyID == "" || m.Role == "" {
			continue
		}
		claims.Roles[m.CompanyID] = m.Role
	}

	if err := s.identity.SetClaims(ctx, userID, claims); err != nil {
		s.metrics.IncrClaimsSync("error")
		return fmt.Errorf("write claims: %w", err)
	}

	s.metrics.IncrClaimsSync("success")
	s.logger.Info("claims reconciled",
		zap.String("user_id", userID),
		zap.Int("companies", len(claims.Roles)),
	)
	return nil
}

// eventUserID pulls user_id out of a raw webhook record.
func eventUserID(record json.RawMessage) string {
	if len(record) == 0 {
		return ""
	}
	var row struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(record, &row); err != nil {
		return ""
	}
	return row.UserID
}
