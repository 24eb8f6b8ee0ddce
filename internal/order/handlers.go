package order

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Handler exposes admin order endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/admin/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	page, err := common.PageFromQuery(r.URL.Query(), 20, 100)
	if err != nil {
		common.WriteError(w, err, "invalid pagination")
		return
	}
	result, err := h.Service.List(r.Context(), page)
	if err != nil {
		common.WriteError(w, err, "failed to list orders")
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.List(w, result.Items, page.Describe(result.Total))
}

// Get handles GET /api/v1/admin/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	ord, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err, "failed to load order")
		return
	}
	common.Data(w, http.StatusOK, ord)
}
