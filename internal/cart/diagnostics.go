package cart

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/obs"
)

// EventKind classifies store anomalies.
type EventKind string

const (
	EventLoadFailed        EventKind = "load_failed"
	EventSnapshotMalformed EventKind = "snapshot_malformed"
	EventSaveFailed        EventKind = "save_failed"
	EventSaveSkipped       EventKind = "save_skipped"
	EventRejected          EventKind = "rejected"
)

// Event describes an anomaly observed by the store.
type Event struct {
	Kind      EventKind
	Op        string
	ProductID string
	Err       error
}

// Diagnostics receives store anomalies. Implementations must not block.
type Diagnostics interface {
	Report(ctx context.Context, ev Event)
}

// NopDiagnostics discards every event.
type NopDiagnostics struct{}

// Report implements Diagnostics.
func (NopDiagnostics) Report(context.Context, Event) {}

// LogDiagnostics logs events and counts them in cart_anomalies_total.
type LogDiagnostics struct {
	Logger zerolog.Logger
}

// Report implements Diagnostics.
func (d LogDiagnostics) Report(_ context.Context, ev Event) {
	kind := string(ev.Kind)
	if ev.Kind == EventRejected {
		kind = rejectionKind(ev.Err)
	}
	obs.IncCounter(obs.CartAnomaliesTotal, kind, ev.Op)

	logEvt := d.Logger.Warn()
	if ev.Kind == EventRejected {
		logEvt = d.Logger.Debug()
	}
	logEvt = logEvt.Str("kind", kind).Str("op", ev.Op)
	if ev.ProductID != "" {
		logEvt = logEvt.Str("product_id", ev.ProductID)
	}
	if ev.Err != nil {
		logEvt = logEvt.Err(ev.Err)
	}
	logEvt.Msg("cart anomaly")
}

func rejectionKind(err error) string {
	switch {
	case err == nil:
		return "rejected"
	case errors.Is(err, ErrStockUnavailable):
		return "stock_unavailable"
	case errors.Is(err, ErrStockLimitExceeded):
		return "stock_limit_exceeded"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "rejected"
	}
}
