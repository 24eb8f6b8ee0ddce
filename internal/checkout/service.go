package checkout

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// Recorder persists a handed-off order and returns its identifier.
type Recorder interface {
	RecordOrder(ctx context.Context, summary Summary) (string, error)
}

// Notifier announces a recorded order to staff.
type Notifier interface {
	OrderPlaced(ctx context.Context, orderID string, summary Summary) error
}

// Result is returned to clients after a successful server-side checkout.
type Result struct {
	OrderID     string         `json:"orderId"`
	Message     string         `json:"message"`
	WhatsAppURL string         `json:"whatsappUrl"`
	Totals      pricing.Totals `json:"totals"`
}

// Service runs checkout for server-side session carts.
type Service struct {
	Sessions *cart.Sessions
	Pricing  pricing.Source
	Composer Composer
	Orders   Recorder
	Notifier Notifier
	Logger   zerolog.Logger
}

// Checkout validates the customer, records the order and clears the session
// cart. The session lock is held from composing until the cart is cleared.
func (s *Service) Checkout(ctx context.Context, session string, customer Customer) (Result, error) {
	if s == nil || s.Sessions == nil || s.Orders == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	var result Result
	err := s.Sessions.With(ctx, session, func(ctx context.Context, store *cart.Store) error {
		flow := &Flow{
			Cart:     store,
			Pricing:  s.Pricing,
			Composer: s.Composer,
			Opener: OpenerFunc(func(ctx context.Context, summary Summary) error {
				id, err := s.Orders.RecordOrder(ctx, summary)
				if err != nil {
					return err
				}
				result.OrderID = id
				if s.Notifier != nil {
					if err := s.Notifier.OrderPlaced(ctx, id, summary); err != nil {
						s.Logger.Warn().Err(err).Str("order_id", id).Msg("order notification not queued")
					}
				}
				return nil
			}),
		}
		summary, err := flow.Submit(ctx, customer)
		if err != nil && result.OrderID == "" {
			return err
		}
		if err != nil {
			s.Logger.Warn().Err(err).Str("order_id", result.OrderID).Msg("cart not cleared after checkout")
		}
		result.Message = summary.Message
		result.WhatsAppURL = summary.URL
		result.Totals = summary.Totals
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
