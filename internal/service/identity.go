package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var identityTracer = otel.Tracer("service/identity")

// IdentityResolver deduplicates driver identities across the two
// untrusted intake channels (company applications and pooled leads) and
// accumulates their data into one master profile per email. It is a
// best-effort side channel: a failed sync never touches the triggering
// submission record.
type IdentityResolver struct {
	identity          port.IdentityProvider
	profiles          port.ProfileStore
	placeholderDomain string
	metrics           *observability.Metrics
	logger            *zap.Logger
}

// NewIdentityResolver creates an identity resolver. placeholderDomain
// is the reserved email domain the public forms substitute when a
// submitter leaves email blank.
func NewIdentityResolver(identity port.IdentityProvider, profiles port.ProfileStore, placeholderDomain string, metrics *observability.Metrics, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		identity:          identity,
		profiles:          profiles,
		placeholderDomain: strings.ToLower(placeholderDomain),
		metrics:           metrics,
		logger:            logger,
	}
}

// SyncSubmission finds or creates the identity account for a submission
// and merges its fields into the master profile. Returns the resolved
// driver id, or "" when the submission has no usable email — phone-only
// submissions get no identity and no profile, by design.
func (r *IdentityResolver) SyncSubmission(ctx context.Context, sub domain.Submission, source string) (string, error) {
	ctx, span := identityTracer.Start(ctx, "IdentityResolver.SyncSubmission")
	defer span.End()
	span.SetAttributes(attribute.String("source", source))

	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" || strings.HasSuffix(email, "@"+r.placeholderDomain) {
		r.logger.Debug("identity sync: no usable email, skipping",
			zap.String("source", source),
		)
		return "", nil
	}

	user, err := r.resolveAccount(ctx, email, sub)
	if err != nil {
		return "", err
	}

	fields := profileFields(sub)
	// Stamped on every submission regardless of which fields it carries.
	fields["last_application_date"] = time.Now().UTC().Format(time.RFC3339)

	if err := r.profiles.MergeProfile(ctx, user.ID, fields); err != nil {
		return "", fmt.Errorf("merge profile: %w", err)
	}

	r.logger.Info("submission resolved",
		zap.String("driver_id", user.ID),
		zap.String("source", source),
	)
	return user.ID, nil
}

// resolveAccount is find-or-create by email. Two submissions for the
// same email can race: both observe "not found", both attempt creation,
// and the provider rejects the loser with a conflict. The loser
// re-resolves by lookup and continues — a compensating read, no lock.
func (r *IdentityResolver) resolveAccount(ctx context.Context, email string, sub domain.Submission) (*domain.IdentityUser, error) {
	user, err := r.identity.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	user, err = r.identity.CreateUser(ctx, email, sub.DisplayName(), sub.Phone)
	if err == nil {
		r.logger.Info("identity account created", zap.String("driver_id", user.ID))
		return user, nil
	}

	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		r.metrics.IncrIdentityConflict()
		r.logger.Info("identity sync: lost create race, re-resolving",
			zap.String("email_domain", emailDomain(email)),
		)
		user, err = r.identity.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("re-resolve after conflict: %w", err)
		}
		return user, nil
	}

	return nil, fmt.Errorf("create account: %w", err)
}

// profileFields builds the merge payload from a submission: present
// fields overwrite, absent fields are simply not written.
func profileFields(sub domain.Submission) map[string]any {
	fields := make(map[string]any)
	put := func(col, val string) {
		if val != "" {
			fields[col] = val
		}
	}

	put("first_name", sub.FirstName)
	put("last_name", sub.LastName)
	put("email", strings.ToLower(strings.TrimSpace(sub.Email)))
	put("phone", sub.Phone)
	put("dob", sub.DOB)
	put("ssn", sub.SSN)
	put("street", sub.Street)
	put("city", sub.City)
	put("state", sub.State)
	put("zip", sub.Zip)
	put("experience_years", sub.Experience)
	put("cdl_state", sub.CDLState)
	put("cdl_number", sub.CDLNumber)
	put("cdl_expiration", sub.CDLExpiration)
	put("cdl_class", sub.CDLClass)

	return fields
}

func emailDomain(email string) string {
	if _, dom, ok := strings.Cut(email, "@"); ok {
		return dom
	}
	return ""
}
