package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/checkout"
	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

type queryProvider interface {
	CreateOrder(ctx context.Context, arg db.CreateOrderParams) (string, time.Time, error)
	ListOrders(ctx context.Context, limit, offset int32) ([]db.Order, error)
	CountOrders(ctx context.Context) (int64, error)
	GetOrder(ctx context.Context, id string) (db.Order, error)
}

// Customer is the contact block stored with each order.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
}

// Order is a recorded checkout handoff.
type Order struct {
	ID        string          `json:"id"`
	Customer  Customer        `json:"customer"`
	Items     []cart.LineItem `json:"items"`
	Totals    pricing.Totals  `json:"totals"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Page is a slice of orders with the total row count.
type Page struct {
	Items []Order
	Total int64
}

// Service records orders handed off at checkout and serves them to admins.
type Service struct {
	queries queryProvider
	logger  zerolog.Logger
}

// NewService constructs a Service.
func NewService(queries queryProvider, logger zerolog.Logger) *Service {
	return &Service{queries: queries, logger: logger}
}

// RecordOrder stores the summary and returns the new order id.
func (s *Service) RecordOrder(ctx context.Context, summary checkout.Summary) (string, error) {
	if s == nil || s.queries == nil {
		return "", errors.New("order service not configured")
	}
	items := summary.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode order items: %w", err)
	}
	id, _, err := s.queries.CreateOrder(ctx, db.CreateOrderParams{
		CustomerName:    summary.Customer.Name,
		CustomerPhone:   summary.Customer.Phone,
		CustomerEmail:   summary.Customer.Email,
		CustomerAddress: summary.Customer.Address,
		OrderItems:      payload,
		Subtotal:        int64(summary.Totals.Subtotal),
		DeliveryCharges: int64(summary.Totals.DeliveryCharge),
		TotalAmount:     int64(summary.Totals.Total),
		Message:         summary.Message,
	})
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	s.logger.Info().Str("order_id", id).Int64("total", int64(summary.Totals.Total)).Int("lines", len(items)).Msg("order recorded")
	return id, nil
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, page common.PageRequest) (Page, error) {
	total, err := s.queries.CountOrders(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count orders: %w", err)
	}
	rows, err := s.queries.ListOrders(ctx, int32(page.Limit), int32(page.Offset()))
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toOrder(row))
	}
	return Page{Items: out, Total: total}, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, notFoundError()
	}
	row, err := s.queries.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Order{}, notFoundError()
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.toOrder(row), nil
}

func (s *Service) toOrder(row db.Order) Order {
	items := []cart.LineItem{}
	if len(row.OrderItems) > 0 {
		if err := json.Unmarshal(row.OrderItems, &items); err != nil {
			s.logger.Warn().Err(err).Str("order_id", row.ID).Msg("order items unreadable")
			items = []cart.LineItem{}
		}
	}
	return Order{
		ID: row.ID,
		Customer: Customer{
			Name:    row.CustomerName,
			Phone:   row.CustomerPhone,
			Email:   row.CustomerEmail,
			Address: row.CustomerAddress,
		},
		Items: items,
		Totals: pricing.Totals{
			Subtotal:       pricing.Money(row.Subtotal),
			DeliveryCharge: pricing.Money(row.DeliveryCharges),
			Total:          pricing.Money(row.TotalAmount),
		},
		Message:   row.Message,
		CreatedAt: row.CreatedAt,
	}
}

func notFoundError() error {
	return common.NotFound("order", nil)
}
