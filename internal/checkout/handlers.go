package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/lock"
)

// Handler exposes session checkout over HTTP.
type Handler struct {
	Svc *Service
}

// Checkout submits the session cart as an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Customer
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	out, err := h.Svc.Checkout(r.Context(), chi.URLParam(r, "session"), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	var missing *MissingFieldError
	var invalid *InvalidFieldError
	switch {
	case errors.As(err, &missing):
		common.JSONError(w, http.StatusUnprocessableEntity, "MISSING_FIELD", err.Error(), map[string]any{"field": missing.Field})
	case errors.As(err, &invalid):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_FIELD", err.Error(), map[string]any{"field": invalid.Field})
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "EMPTY_CART", err.Error(), nil)
	case errors.Is(err, ErrCheckoutInProgress), errors.Is(err, lock.ErrNotAcquired):
		common.JSONError(w, http.StatusConflict, "CHECKOUT_IN_PROGRESS", "checkout already in progress", nil)
	case errors.Is(err, cart.ErrPersistenceUnavailable):
		w.Header().Set("Retry-After", "1")
		common.JSONError(w, http.StatusServiceUnavailable, "CART_UNAVAILABLE", "cart storage is unavailable, retry shortly", nil)
	case errors.Is(err, cart.ErrInvalidSession):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to complete checkout", nil)
	}
}
