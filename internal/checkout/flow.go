package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/obs"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// State is a checkout flow state.
type State int

const (
	Idle State = iota
	Validating
	Confirming
	Handoff
	Cleared
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Confirming:
		return "confirming"
	case Handoff:
		return "handoff"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Cart is the part of the cart store the flow depends on.
type Cart interface {
	Snapshot() []cart.LineItem
	Clear(ctx context.Context) error
}

// Opener delivers a composed order to the external messaging service.
type Opener interface {
	Open(ctx context.Context, summary Summary) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, summary Summary) error

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, summary Summary) error { return f(ctx, summary) }

// Flow drives one checkout from validation through handoff. With a positive
// Delay the handoff runs after a cancelable countdown; the cart is cleared only
// once the Opener has accepted the order.
type Flow struct {
	Cart     Cart
	Pricing  pricing.Source
	Composer Composer
	Opener   Opener
	Delay    time.Duration

	mu      sync.Mutex
	state   State
	task    *Task
	lastErr error
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the outcome of the most recent handoff.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submit validates the customer and composes the order. Without a delay the
// handoff happens before Submit returns. With a delay Submit returns the
// pending summary and the handoff fires when the countdown elapses unless
// Cancel is called first; Done reports when that has happened.
func (f *Flow) Submit(ctx context.Context, customer Customer) (Summary, error) {
	f.mu.Lock()
	if f.state == Confirming || f.state == Handoff || f.state == Validating {
		f.mu.Unlock()
		return Summary{}, ErrCheckoutInProgress
	}
	f.state = Validating
	f.mu.Unlock()

	summary, err := f.prepare(ctx, customer)
	if err != nil {
		f.setState(Idle)
		return Summary{}, err
	}

	if f.Delay <= 0 {
		f.setState(Handoff)
		return summary, f.handoff(ctx, summary)
	}

	detached := context.WithoutCancel(ctx)
	f.mu.Lock()
	f.state = Confirming
	f.lastErr = nil
	f.task = Schedule(f.Delay, func() { f.fire(detached, summary) })
	f.mu.Unlock()
	return summary, nil
}

// Cancel aborts a pending countdown and returns the flow to Idle with the
// cart untouched. It is a no-op, returning false, when nothing is pending or
// the handoff has already begun.
func (f *Flow) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Confirming {
		return false
	}
	if !f.task.Cancel() {
		return false
	}
	f.state = Idle
	obs.IncCounter(obs.CheckoutHandoffsTotal, "cancelled")
	return true
}

// Done is closed when the pending countdown completes or is cancelled. It is
// already closed when nothing is pending.
func (f *Flow) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return f.task.Done()
}

func (f *Flow) prepare(ctx context.Context, customer Customer) (Summary, error) {
	if err := ValidateCustomer(customer); err != nil {
		return Summary{}, err
	}
	items := f.Cart.Snapshot()
	if len(items) == 0 {
		return Summary{}, ErrEmptyCart
	}
	cfg := pricing.Config{}
	if f.Pricing != nil {
		loaded, err := f.Pricing.PricingConfig(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("load pricing config: %w", err)
		}
		cfg = loaded
	}
	totals := pricing.Compute(cart.PricingItems(items), cfg)
	return f.Composer.Summarize(items, totals, customer), nil
}

func (f *Flow) fire(ctx context.Context, summary Summary) {
	f.mu.Lock()
	if f.state != Confirming {
		f.mu.Unlock()
		return
	}
	f.state = Handoff
	f.mu.Unlock()
	_ = f.handoff(ctx, summary)
}

func (f *Flow) handoff(ctx context.Context, summary Summary) error {
	var err error
	if f.Opener != nil {
		err = f.Opener.Open(ctx, summary)
	}
	if err != nil {
		err = fmt.Errorf("handoff: %w", err)
		f.finish(Idle, err)
		obs.IncCounter(obs.CheckoutHandoffsTotal, "failed")
		return err
	}
	if clearErr := f.Cart.Clear(ctx); clearErr != nil {
		err = fmt.Errorf("clear cart after handoff: %w", clearErr)
	}
	f.finish(Cleared, err)
	obs.IncCounter(obs.CheckoutHandoffsTotal, "ok")
	return err
}

func (f *Flow) finish(state State, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.lastErr = err
}

func (f *Flow) setState(state State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}
