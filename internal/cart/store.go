package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/noah-isme/rakhimart/internal/stock"
)

// Persistence stores and restores a serialised cart snapshot.
type Persistence interface {
	// Load returns the last saved snapshot or ErrSnapshotMissing.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store is the single authoritative cart for one shopper. Every successful
// mutation is written through to the persistence; persistence failures are
// reported but never undo the in-memory change.
//
// A store whose load failed for any reason other than a missing snapshot is
// detached: it works in memory only and never saves, so the record it could
// not read is left intact.
type Store struct {
	mu          sync.Mutex
	items       []LineItem
	persistence Persistence
	diag        Diagnostics
	persistErr  error
	detached    bool
}

// NewStore constructs a store and restores the persisted cart. A missing,
// unreadable or malformed snapshot yields an empty cart.
func NewStore(ctx context.Context, p Persistence, diag Diagnostics) *Store {
	if diag == nil {
		diag = NopDiagnostics{}
	}
	s := &Store{persistence: p, diag: diag}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	if s.persistence == nil {
		return
	}
	data, err := s.persistence.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSnapshotMissing) {
			s.persistErr = fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
			s.detached = true
			s.diag.Report(ctx, Event{Kind: EventLoadFailed, Op: "load", Err: s.persistErr})
		}
		return
	}
	items, err := DecodeItems(data)
	if err != nil {
		s.diag.Report(ctx, Event{Kind: EventSnapshotMalformed, Op: "load", Err: err})
		return
	}
	s.items = items
}

// AddItem adds delta units of product to the cart. A zero delta adds one unit.
// The add is all-or-nothing: when the resulting quantity would exceed the known
// stock the cart is left unchanged.
func (s *Store) AddItem(ctx context.Context, p Product, delta int) error {
	id := strings.TrimSpace(p.ID)
	if id == "" || p.Price.IsNegative() {
		return s.reject(ctx, "add", id, fmt.Errorf("product %q: %w", p.ID, ErrInvalidProduct))
	}
	if delta == 0 {
		delta = 1
	}
	if delta < 0 {
		return s.reject(ctx, "add", id, fmt.Errorf("delta %d: %w", delta, ErrInvalidQuantity))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	current := 0
	if idx >= 0 {
		current = s.items[idx].Quantity
	}
	switch stock.CanIncrease(current, delta, p.Stock, p.OutOfStock) {
	case stock.Unavailable:
		return s.reject(ctx, "add", id, fmt.Errorf("product %s: %w", id, ErrStockUnavailable))
	case stock.LimitExceeded:
		return s.reject(ctx, "add", id, fmt.Errorf("product %s: %d in cart, %d requested, %d available: %w",
			id, current, delta, p.Stock, ErrStockLimitExceeded))
	}

	if idx >= 0 {
		s.items[idx].Quantity += delta
		s.items[idx].Stock = p.Stock
		s.items[idx].OutOfStock = p.OutOfStock
	} else {
		s.items = append(s.items, newLineItem(p, delta))
	}
	s.persistLocked(ctx, "add")
	return nil
}

// SetQuantity replaces the quantity of an existing line item. Zero removes the
// item; increases are checked against the stock recorded on the line.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) error {
	id := strings.TrimSpace(productID)
	if qty < 0 {
		return s.reject(ctx, "set", id, fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if qty == 0 {
		if s.removeLocked(id) {
			s.persistLocked(ctx, "set")
		}
		return nil
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return s.reject(ctx, "set", id, fmt.Errorf("line item %s: %w", id, ErrNotFound))
	}
	item := s.items[idx]
	if qty > item.Quantity {
		switch stock.CanIncrease(item.Quantity, qty-item.Quantity, item.Stock, item.OutOfStock) {
		case stock.Unavailable:
			return s.reject(ctx, "set", id, fmt.Errorf("product %s: %w", id, ErrStockUnavailable))
		case stock.LimitExceeded:
			return s.reject(ctx, "set", id, fmt.Errorf("product %s: %d requested, %d available: %w",
				id, qty, item.Stock, ErrStockLimitExceeded))
		}
	}
	if qty == item.Quantity {
		return nil
	}
	s.items[idx].Quantity = qty
	s.persistLocked(ctx, "set")
	return nil
}

// RemoveItem deletes the line item if present. Removing an unknown item is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeLocked(strings.TrimSpace(productID)) {
		s.persistLocked(ctx, "remove")
	}
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persistLocked(ctx, "clear")
	return nil
}

// Snapshot returns a copy of the current line items in insertion order.
func (s *Store) Snapshot() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

// Detached reports whether the store could not read its snapshot and is
// running in memory only.
func (s *Store) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

// PersistenceErr returns the last load or save failure, or nil once a save
// has succeeded. A detached store keeps its load failure.
func (s *Store) PersistenceErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ProductID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return true
}

func (s *Store) persistLocked(ctx context.Context, op string) {
	if s.persistence == nil {
		return
	}
	if s.detached {
		s.diag.Report(ctx, Event{Kind: EventSaveSkipped, Op: op, Err: s.persistErr})
		return
	}
	data, err := EncodeItems(s.items)
	if err == nil {
		err = s.persistence.Save(ctx, data)
	}
	if err != nil {
		s.persistErr = fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
		s.diag.Report(ctx, Event{Kind: EventSaveFailed, Op: op, Err: s.persistErr})
		return
	}
	s.persistErr = nil
}

func (s *Store) reject(ctx context.Context, op, productID string, err error) error {
	s.diag.Report(ctx, Event{Kind: EventRejected, Op: op, ProductID: productID, Err: err})
	return err
}
