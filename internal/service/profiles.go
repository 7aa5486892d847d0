package service

import (
	"context"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profiles")

// ProfileService serves master driver profiles to the dashboard with a
// small read-through cache. Writes go through the resolver only.
type ProfileService struct {
	profiles port.ProfileStore
	cache    port.Cache[*domain.DriverProfile]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProfileService creates a profile read service.
func NewProfileService(profiles port.ProfileStore, cache port.Cache[*domain.DriverProfile], metrics *observability.Metrics, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetProfile returns the master profile for a driver.
func (s *ProfileService) GetProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.GetProfile")
	defer span.End()

	if cached, ok := s.cache.Get(driverID); ok {
		s.metrics.IncrCacheHit("profile")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("profile")

	profile, err := s.profiles.GetProfile(ctx, driverID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(driverID, profile)
	return profile, nil
}
