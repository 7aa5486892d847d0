package handler

import (
	"net/http"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CompaniesHandler exposes tenant administration.
type CompaniesHandler struct {
	companies *service.CompanyService
	logger    *zap.Logger
}

// NewCompaniesHandler creates the company admin handler.
func NewCompaniesHandler(companies *service.CompanyService, logger *zap.Logger) *CompaniesHandler {
	return &CompaniesHandler{companies: companies, logger: logger}
}

// Create handles POST /v1/companies (super admin only, enforced by the
// route middleware).
func (h *CompaniesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	company, err := h.companies.CreateCompany(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

// List handles GET /v1/companies (super admin only).
func (h *CompaniesHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.ListCompanies(r.Context())
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// Get handles GET /v1/companies/{companyID}.
func (h *CompaniesHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !isCompanyMember(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "view this company"}, h.logger)
		return
	}

	company, err := h.companies.GetCompany(r.Context(), companyID)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Update handles PATCH /v1/companies/{companyID}.
func (h *CompaniesHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !canManageCompany(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "manage this company"}, h.logger)
		return
	}

	var req service.UpdateCompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	company, err := h.companies.UpdateCompany(r.Context(), companyID, &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Delete handles DELETE /v1/companies/{companyID} (super admin only).
func (h *CompaniesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if err := h.companies.DeleteCompany(r.Context(), companyID); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "company deleted", ID: companyID})
}
