package settings

import (
	"net/http"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Handler exposes the settings endpoints.
type Handler struct {
	Service *Service
}

// Get handles GET /api/v1/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	st, err := h.Service.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, st)
}

// Update handles PUT /api/v1/settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	var patch Settings
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	st, err := h.Service.Update(r.Context(), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, st)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, err, "unable to load settings")
}
