package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/rakhimart/internal/checkout"
)

// TypeOrderPlaced is the asynq task type emitted after a checkout handoff.
const TypeOrderPlaced = "order:placed"

// OrderPlacedPayload is the task body for TypeOrderPlaced.
type OrderPlacedPayload struct {
	OrderID string           `json:"orderId"`
	Summary checkout.Summary `json:"summary"`
}

// NewOrderPlacedTask encodes an order notification. The order id doubles as
// the asynq task id so repeated enqueues collapse into one delivery.
func NewOrderPlacedTask(orderID string, summary checkout.Summary, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderPlacedPayload{OrderID: orderID, Summary: summary})
	if err != nil {
		return nil, fmt.Errorf("notify: encode order payload: %w", err)
	}
	if maxRetry <= 0 {
		maxRetry = 5
	}
	return asynq.NewTask(TypeOrderPlaced, payload,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(30*time.Second),
		asynq.TaskID("order-placed:"+orderID),
	), nil
}
