package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/obs"
)

// OrderPlacedHandler mails the composed order message to staff and, when the
// customer left an address, a copy to the customer.
type OrderPlacedHandler struct {
	Mail      common.EmailSender
	To        string
	StoreName string
	Logger    zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h OrderPlacedHandler) ProcessTask(_ context.Context, task *asynq.Task) error {
	var p OrderPlacedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		obs.IncCounter(obs.OrderNotificationsTotal, "skipped")
		return fmt.Errorf("notify: decode order payload: %w: %w", err, asynq.SkipRetry)
	}
	if h.Mail == nil {
		obs.IncCounter(obs.OrderNotificationsTotal, "skipped")
		return nil
	}
	store := h.StoreName
	if store == "" {
		store = "RakhiMart"
	}
	body := renderBody(p.Summary.Message)

	if to := strings.TrimSpace(h.To); to != "" {
		subject := fmt.Sprintf("New order %s", p.OrderID)
		if err := h.Mail.Send(to, subject, body); err != nil {
			obs.IncCounter(obs.OrderNotificationsTotal, "failed")
			return fmt.Errorf("notify: staff mail: %w", err)
		}
	}
	if to := strings.TrimSpace(p.Summary.Customer.Email); to != "" {
		subject := fmt.Sprintf("Your %s order %s", store, p.OrderID)
		if err := h.Mail.Send(to, subject, body); err != nil {
			h.Logger.Warn().Err(err).Str("order_id", p.OrderID).Msg("customer copy not sent")
		}
	}
	obs.IncCounter(obs.OrderNotificationsTotal, "sent")
	h.Logger.Info().Str("order_id", p.OrderID).Msg("order notification sent")
	return nil
}

func renderBody(message string) string {
	return "<pre>" + html.EscapeString(message) + "</pre>"
}
