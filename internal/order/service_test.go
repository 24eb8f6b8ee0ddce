package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/checkout"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

type fakeQueries struct {
	orders []db.Order
	clock  time.Time
	fail   error
}

func (f *fakeQueries) CreateOrder(_ context.Context, arg db.CreateOrderParams) (string, time.Time, error) {
	if f.fail != nil {
		return "", time.Time{}, f.fail
	}
	f.clock = f.clock.Add(time.Minute)
	id := uuid.NewString()
	f.orders = append(f.orders, db.Order{
		ID:              id,
		CustomerName:    arg.CustomerName,
		CustomerPhone:   arg.CustomerPhone,
		CustomerEmail:   arg.CustomerEmail,
		CustomerAddress: arg.CustomerAddress,
		OrderItems:      arg.OrderItems,
		Subtotal:        arg.Subtotal,
		DeliveryCharges: arg.DeliveryCharges,
		TotalAmount:     arg.TotalAmount,
		Message:         arg.Message,
		CreatedAt:       f.clock,
	})
	return id, f.clock, nil
}

func (f *fakeQueries) sorted() []db.Order {
	out := append([]db.Order(nil), f.orders...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeQueries) ListOrders(_ context.Context, limit, offset int32) ([]db.Order, error) {
	all := f.sorted()
	if int(offset) >= len(all) {
		return nil, nil
	}
	end := int(offset + limit)
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeQueries) CountOrders(context.Context) (int64, error) {
	return int64(len(f.orders)), nil
}

func (f *fakeQueries) GetOrder(_ context.Context, id string) (db.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return db.Order{}, db.ErrNotFound
}

func sampleSummary(name string) checkout.Summary {
	return checkout.Summary{
		Items: []cart.LineItem{{
			ProductID: "p-1",
			Name:      "Silk Thread Rakhi",
			UnitPrice: decimal.RequireFromString("149.50"),
			Quantity:  2,
			Stock:     10,
		}},
		Totals: pricing.Totals{Subtotal: 299, DeliveryCharge: 50, Total: 349},
		Customer: checkout.Customer{
			Name:    name,
			Phone:   "9999999999",
			Address: "12 MG Road, Pune",
		},
		Message: "New order",
	}
}

func TestRecordOrderPersistsSummary(t *testing.T) {
	q := &fakeQueries{clock: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewService(q, zerolog.Nop())

	id, err := svc.RecordOrder(context.Background(), sampleSummary("Asha"))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, q.orders, 1)

	stored := q.orders[0]
	require.Equal(t, int64(299), stored.Subtotal)
	require.Equal(t, int64(50), stored.DeliveryCharges)
	require.Equal(t, int64(349), stored.TotalAmount)
	require.Equal(t, "Asha", stored.CustomerName)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(stored.OrderItems, &items))
	require.Len(t, items, 1)
	require.Equal(t, "p-1", items[0]["id"])

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(349), got.Totals.Total)
	require.True(t, decimal.RequireFromString("149.5").Equal(got.Items[0].UnitPrice))
}

func TestRecordOrderWrapsStoreError(t *testing.T) {
	svc := NewService(&fakeQueries{fail: fmt.Errorf("connection reset")}, zerolog.Nop())
	_, err := svc.RecordOrder(context.Background(), sampleSummary("Asha"))
	require.ErrorContains(t, err, "insert order")
}

func TestGetUnknownOrder(t *testing.T) {
	svc := NewService(&fakeQueries{}, zerolog.Nop())
	_, err := svc.Get(context.Background(), "not-a-uuid")
	require.Error(t, err)
	_, err = svc.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
}

func TestAdminHandlers(t *testing.T) {
	q := &fakeQueries{clock: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewService(q, zerolog.Nop())
	var lastID string
	for _, name := range []string{"Asha", "Ravi", "Meera"} {
		id, err := svc.RecordOrder(context.Background(), sampleSummary(name))
		require.NoError(t, err)
		lastID = id
	}

	h := &Handler{Service: svc}
	r := chi.NewRouter()
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders?page=1&limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "3", rr.Header().Get("X-Total-Count"))
	var list struct {
		Data       []Order `json:"data"`
		Pagination struct {
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	require.Equal(t, "Meera", list.Data[0].Customer.Name)
	require.Equal(t, 2, list.Pagination.TotalPages)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/"+lastID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders?page=0", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"field":"page"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders?page=2&limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "Asha", list.Data[0].Customer.Name)
}
