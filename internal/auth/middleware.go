package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Middleware guards admin routes.
type Middleware struct {
	Service *Service
}

// RequireAdmin rejects requests without a valid admin bearer token: 401 when
// the token is missing or invalid, 403 when it carries another role.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
			return
		}
		token := bearerToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		principal, err := m.Service.ParseAdminToken(token)
		if err != nil {
			if !common.WriteAppError(w, err) {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
