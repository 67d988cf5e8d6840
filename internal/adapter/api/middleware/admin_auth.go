package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/alert-triage/internal/pkg/admintoken"
)

// AdminAuth requires an admin bearer token signed with secret. An empty
// secret disables the check.
func AdminAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
				return
			}

			claims, err := admintoken.Validate(raw, secret)
			if errors.Is(err, admintoken.ErrForbidden) {
				logger.Warn("admin request without admin role", "remote_addr", r.RemoteAddr)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			if err != nil {
				logger.Warn("invalid admin token", "error", err, "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			logger.Info("admin request", "subject", claims.Subject, "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
