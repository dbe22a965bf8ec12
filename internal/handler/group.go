package handler

import (
	"log/slog"
	"net/http"

	"strata/internal/domain/services"
	"strata/internal/httputil"
)

// GroupHandler serves the group tree endpoints
type GroupHandler struct {
	groups services.GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups services.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groups: groups,
		logger: logger,
	}
}

// List handles GET /api/groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListChildren(r.Context(), optionalID(r.URL.Query().Get("parent_id")))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, groups)
}

// Create handles POST /api/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	var req services.CreateGroupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.groups.Create(r.Context(), principal, &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, group)
}

// Update handles PUT /api/groups/{id}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	var req services.UpdateGroupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.groups.Update(r.Context(), principal, r.PathValue("id"), &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, group)
}

// Delete handles DELETE /api/groups/{id}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	if err := h.groups.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		HandleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
