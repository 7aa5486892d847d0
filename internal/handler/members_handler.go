package handler

import (
	"net/http"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MembersHandler exposes membership and invite administration.
type MembersHandler struct {
	members *service.MemberService
	logger  *zap.Logger
}

// NewMembersHandler creates the membership admin handler.
func NewMembersHandler(members *service.MemberService, logger *zap.Logger) *MembersHandler {
	return &MembersHandler{members: members, logger: logger}
}

// Add handles POST /v1/companies/{companyID}/members.
func (h *MembersHandler) Add(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !canManageCompany(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "manage company members"}, h.logger)
		return
	}

	var req service.AddMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	membership, err := h.members.AddMember(r.Context(), companyID, &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

// List handles GET /v1/companies/{companyID}/members.
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !isCompanyMember(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "view company members"}, h.logger)
		return
	}

	members, err := h.members.ListMembers(r.Context(), companyID)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Remove handles DELETE /v1/companies/{companyID}/members/{membershipID}.
func (h *MembersHandler) Remove(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !canManageCompany(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "manage company members"}, h.logger)
		return
	}

	membershipID := chi.URLParam(r, "membershipID")
	if err := h.members.RemoveMember(r.Context(), companyID, membershipID); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "membership removed", ID: membershipID})
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateInvite handles POST /v1/companies/{companyID}/invites.
func (h *MembersHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if !canManageCompany(SessionFromContext(r.Context()), companyID) {
		handleServiceError(w, &domain.ErrForbidden{Action: "issue company invites"}, h.logger)
		return
	}

	var req createInviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.members.CreateInvite(r.Context(), companyID, req.Email, req.Role)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

// AcceptInvite handles POST /v1/invites/{inviteID}/accept. The token is
// the credential; no session is required — the invitee may not have an
// account yet.
func (h *MembersHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := chi.URLParam(r, "inviteID")

	var req acceptInviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	membership, err := h.members.AcceptInvite(r.Context(), inviteID, req.Token)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}
