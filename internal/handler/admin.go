package handler

import (
	"log/slog"
	"net/http"

	"strata/internal/domain/services"
	"strata/internal/httputil"
)

// AdminHandler serves account administration endpoints. Authorization is
// enforced in the service layer, not here.
type AdminHandler struct {
	accounts services.AccountService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accounts services.AccountService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// updateUserBody is the wire shape for user updates; group_id is tri-state
// so an explicit null clears the membership
type updateUserBody struct {
	Username *string                 `json:"username"`
	Position *string                 `json:"position"`
	GroupID  httputil.OptionalString `json:"group_id"`
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	acting := httputil.GetPrincipal(r)

	var body updateUserBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &services.UpdateUserRequest{
		Username: body.Username,
		Position: body.Position,
	}
	if body.GroupID.Present {
		req.GroupID = &body.GroupID.Value
	}

	principal, err := h.accounts.UpdateUser(r.Context(), acting, r.PathValue("id"), req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, principal)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	acting := httputil.GetPrincipal(r)

	if err := h.accounts.DeleteUser(r.Context(), acting, r.PathValue("id")); err != nil {
		HandleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
