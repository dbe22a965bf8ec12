package handler

import (
	"log/slog"
	"net/http"

	"strata/internal/domain/services"
	"strata/internal/httputil"
)

// AuthHandler serves registration, login and the user directory
type AuthHandler struct {
	accounts services.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts services.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, principal)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListUsers handles GET /api/auth/users. Password hashes never serialize;
// the response is the public directory used for share pickers.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

// Me handles GET /api/auth/me, returning the authenticated principal
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, httputil.GetPrincipal(r))
}
