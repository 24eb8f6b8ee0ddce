package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/lock"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// ProductLookup resolves the current catalog state of a product.
type ProductLookup interface {
	CartProduct(ctx context.Context, id string) (Product, error)
}

// Handler wires session carts to HTTP.
type Handler struct {
	Sessions *Sessions
	Products ProductLookup
	Pricing  pricing.Source
	Currency string
}

type itemView struct {
	LineItem
	LineTotal pricing.Money `json:"lineTotal"`
}

type cartView struct {
	Session              string         `json:"session"`
	Items                []itemView     `json:"items"`
	Count                int            `json:"count"`
	Totals               pricing.Totals `json:"totals"`
	AmountToFreeDelivery pricing.Money  `json:"amountToFreeDelivery"`
	Currency             string         `json:"currency"`
}

// Create allocates a new, empty session cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	h.render(w, r, http.StatusCreated, h.Sessions.New(), nil)
}

// Get returns cart contents and totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := chi.URLParam(r, "session")
	store, err := h.Sessions.View(r.Context(), session)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderStore(w, r, http.StatusOK, session, store)
}

// AddItem adds units of a product to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil || h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	payload.ProductID = strings.TrimSpace(payload.ProductID)
	if payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	session := chi.URLParam(r, "session")
	var result *Store
	err := h.Sessions.With(r.Context(), session, func(ctx context.Context, store *Store) error {
		product, err := h.Products.CartProduct(ctx, payload.ProductID)
		if err != nil {
			return err
		}
		if err := store.AddItem(ctx, product, payload.Quantity); err != nil {
			return err
		}
		result = store
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderStore(w, r, http.StatusOK, session, result)
}

// UpdateItem sets the quantity of a line item; zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		Quantity *int `json:"quantity"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	if payload.Quantity == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity is required", nil)
		return
	}
	session := chi.URLParam(r, "session")
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, session, func(ctx context.Context, store *Store) error {
		return store.SetQuantity(ctx, productID, *payload.Quantity)
	})
}

// RemoveItem deletes a line item. Unknown items are ignored.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := chi.URLParam(r, "session")
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, session, func(ctx context.Context, store *Store) error {
		store.RemoveItem(ctx, productID)
		return nil
	})
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := chi.URLParam(r, "session")
	h.mutate(w, r, session, func(ctx context.Context, store *Store) error {
		return store.Clear(ctx)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, session string, fn func(context.Context, *Store) error) {
	var result *Store
	err := h.Sessions.With(r.Context(), session, func(ctx context.Context, store *Store) error {
		if err := fn(ctx, store); err != nil {
			return err
		}
		result = store
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderStore(w, r, http.StatusOK, session, result)
}

func (h *Handler) renderStore(w http.ResponseWriter, r *http.Request, status int, session string, store *Store) {
	if err := store.PersistenceErr(); err != nil {
		w.Header().Set("X-Cart-Persistence", "degraded")
	}
	h.render(w, r, status, session, store.Snapshot())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, session string, items []LineItem) {
	cfg := pricing.Config{}
	if h.Pricing != nil {
		loaded, err := h.Pricing.PricingConfig(r.Context())
		if err != nil {
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "unable to load delivery settings", nil)
			return
		}
		cfg = loaded
	}
	view := cartView{
		Session:  session,
		Items:    make([]itemView, 0, len(items)),
		Count:    Count(items),
		Totals:   pricing.Compute(PricingItems(items), cfg),
		Currency: h.Currency,
	}
	for _, it := range items {
		view.Items = append(view.Items, itemView{LineItem: it, LineTotal: pricing.Round(it.LineTotal())})
	}
	view.AmountToFreeDelivery = pricing.AmountToFreeDelivery(view.Totals.Subtotal, cfg)
	common.Data(w, status, view)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrStockLimitExceeded):
		common.JSONError(w, http.StatusConflict, "STOCK_LIMIT_EXCEEDED", err.Error(), nil)
	case errors.Is(err, ErrStockUnavailable):
		common.JSONError(w, http.StatusConflict, "STOCK_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrInvalidSession):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrPersistenceUnavailable):
		w.Header().Set("Retry-After", "1")
		common.JSONError(w, http.StatusServiceUnavailable, "CART_UNAVAILABLE", "cart storage is unavailable, retry shortly", nil)
	case errors.Is(err, lock.ErrNotAcquired):
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart is being updated, retry shortly", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update cart", nil)
	}
}
