package auth

import (
	"net/http"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Handler exposes the admin login endpoint.
type Handler struct {
	Service *Service
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	result, err := h.Service.Login(r.Context(), req.Password)
	if err != nil {
		common.WriteError(w, err, "login failed")
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Session handles GET /api/v1/auth/session behind RequireAdmin. The admin
// panel calls it on load to check a stored token before showing the dashboard.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	common.Data(w, http.StatusOK, principal)
}
