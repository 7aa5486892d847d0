package handler

import (
	"net/http"

	"github.com/fleethire/driverhub-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfilesHandler serves master driver profiles to recruiting staff.
type ProfilesHandler struct {
	profiles *service.ProfileService
	logger   *zap.Logger
}

// NewProfilesHandler creates the profile read handler.
func NewProfilesHandler(profiles *service.ProfileService, logger *zap.Logger) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, logger: logger}
}

// Get handles GET /v1/drivers/{driverID}/profile. Any authenticated
// recruiting user may read; profiles are platform-scoped, not
// tenant-scoped.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")

	profile, err := h.profiles.GetProfile(r.Context(), driverID)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
