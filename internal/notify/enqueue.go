package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/rakhimart/internal/checkout"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes order notifications to the worker queue.
type Enqueuer struct {
	Client   taskEnqueuer
	Queue    string
	MaxRetry int
}

// OrderPlaced implements checkout.Notifier.
func (e Enqueuer) OrderPlaced(ctx context.Context, orderID string, summary checkout.Summary) error {
	if e.Client == nil || strings.TrimSpace(orderID) == "" {
		return nil
	}
	task, err := NewOrderPlacedTask(orderID, summary, e.MaxRetry)
	if err != nil {
		return err
	}
	var opts []asynq.Option
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	_, err = e.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
