package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"strata/internal/auth"
	"strata/internal/domain/repositories"
	"strata/internal/httputil"
)

// Auth validates the bearer token and resolves the principal row for every
// request. The token carries role and position claims, but those are only
// hints for clients; authorization always runs against the current row, so
// demoting or deleting an account takes effect immediately.
func Auth(tokens *auth.TokenManager, principals repositories.PrincipalRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			principal, err := principals.GetByID(r.Context(), claims.Subject)
			if err != nil {
				logger.Debug("token subject no longer exists", "subject", claims.Subject)
				httputil.RespondError(w, http.StatusUnauthorized, "account no longer exists")
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}
