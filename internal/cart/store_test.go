package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

type memPersistence struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersistence) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ErrSnapshotMissing
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memPersistence) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = append([]byte(nil), data...)
	return nil
}

type recordingDiag struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingDiag) Report(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingDiag) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func product(id, price string, stock int) Product {
	return Product{
		ID:     id,
		Name:   "Rakhi " + id,
		Price:  decimal.RequireFromString(price),
		Images: []string{"https://img.example/" + id + ".jpg"},
		Stock:  stock,
	}
}

func TestAddItemRespectsStockCeiling(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	a := product("A", "100", 3)

	for i := 0; i < 3; i++ {
		if err := s.AddItem(ctx, a, 1); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	err := s.AddItem(ctx, a, 1)
	if !errors.Is(err, ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}
	items := s.Snapshot()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3 after rejection, got %+v", items)
	}
}

func TestAddItemIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	a := product("A", "100", 3)
	if err := s.AddItem(ctx, a, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(ctx, a, 2); !errors.Is(err, ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}
	if got := s.Count(); got != 2 {
		t.Fatalf("expected no partial add, count=%d", got)
	}
}

func TestAddItemRejectsOverflowingDelta(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	a := product("A", "100", 3)
	if err := s.AddItem(ctx, a, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(ctx, a, math.MaxInt); !errors.Is(err, ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}
	if err := s.AddItem(ctx, product("B", "10", 3), math.MaxInt); !errors.Is(err, ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded for new line, got %v", err)
	}
	items := s.Snapshot()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected cart unchanged, got %+v", items)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	ctx := context.Background()
	diag := &recordingDiag{}
	s := NewStore(ctx, nil, diag)

	zero := product("Z", "10", 0)
	if err := s.AddItem(ctx, zero, 1); !errors.Is(err, ErrStockUnavailable) {
		t.Fatalf("expected ErrStockUnavailable for zero stock, got %v", err)
	}
	flagged := product("F", "10", 10)
	flagged.OutOfStock = true
	if err := s.AddItem(ctx, flagged, 1); !errors.Is(err, ErrStockUnavailable) {
		t.Fatalf("expected ErrStockUnavailable for flagged product, got %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("expected empty cart")
	}
	if kinds := diag.kinds(); len(kinds) != 2 || kinds[0] != EventRejected {
		t.Fatalf("expected two rejection events, got %v", kinds)
	}
}

func TestAddItemZeroDeltaAddsOne(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	if err := s.AddItem(ctx, product("A", "5", 5), 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("expected one unit, got %d", got)
	}
	if err := s.AddItem(ctx, product("A", "5", 5), -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddItemKeepsUniqueLinesAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	if err := s.AddItem(ctx, product("A", "100", 5), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(ctx, product("B", "50", 5), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	repriced := product("A", "250", 9)
	repriced.Name = "Renamed"
	if err := s.AddItem(ctx, repriced, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := s.Snapshot()
	if len(items) != 2 {
		t.Fatalf("expected two distinct lines, got %d", len(items))
	}
	a := items[0]
	if a.ProductID != "A" || a.Quantity != 3 {
		t.Fatalf("expected A x3 first, got %+v", a)
	}
	if !a.UnitPrice.Equal(decimal.NewFromInt(100)) || a.Name != "Rakhi A" {
		t.Fatalf("expected price and name captured at first add, got %+v", a)
	}
	if a.Stock != 9 {
		t.Fatalf("expected stock ceiling refreshed to 9, got %d", a.Stock)
	}
}

func TestAddItemUsesPlaceholderThumbnail(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	p := product("A", "10", 1)
	p.Images = nil
	if err := s.AddItem(ctx, p, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := s.Snapshot()[0].Thumbnail; got != PlaceholderThumbnail {
		t.Fatalf("expected placeholder thumbnail, got %q", got)
	}
}

func TestAddItemRejectsInvalidProduct(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	if err := s.AddItem(ctx, product(" ", "10", 1), 1); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for blank id, got %v", err)
	}
	if err := s.AddItem(ctx, product("N", "-1", 1), 1); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for negative price, got %v", err)
	}
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	if err := s.AddItem(ctx, product("A", "10", 4), 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.SetQuantity(ctx, "A", 4); err != nil {
		t.Fatalf("set to ceiling: %v", err)
	}
	if err := s.SetQuantity(ctx, "A", 5); !errors.Is(err, ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}
	if err := s.SetQuantity(ctx, "A", -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := s.SetQuantity(ctx, "missing", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetQuantity(ctx, "A", 2); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if got := s.Count(); got != 2 {
		t.Fatalf("expected 2 units, got %d", got)
	}
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	build := func() *Store {
		s := NewStore(ctx, nil, nil)
		_ = s.AddItem(ctx, product("A", "10", 5), 2)
		_ = s.AddItem(ctx, product("B", "20", 5), 1)
		return s
	}

	viaSet := build()
	if err := viaSet.SetQuantity(ctx, "A", 0); err != nil {
		t.Fatalf("set zero: %v", err)
	}
	viaRemove := build()
	viaRemove.RemoveItem(ctx, "A")

	a, b := viaSet.Snapshot(), viaRemove.Snapshot()
	if len(a) != 1 || len(b) != 1 || a[0].ProductID != b[0].ProductID {
		t.Fatalf("expected identical carts, got %+v vs %+v", a, b)
	}

	// Both are no-ops for unknown items.
	if err := viaSet.SetQuantity(ctx, "missing", 0); err != nil {
		t.Fatalf("set zero on unknown item: %v", err)
	}
	viaRemove.RemoveItem(ctx, "missing")
	if viaSet.Count() != viaRemove.Count() {
		t.Fatalf("expected equal counts")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, nil)
	_ = s.AddItem(ctx, product("A", "10", 5), 1)
	snap := s.Snapshot()
	snap[0].Quantity = 99
	if got := s.Count(); got != 1 {
		t.Fatalf("expected store unaffected by snapshot mutation, got %d", got)
	}
}

func TestStorePersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	s := NewStore(ctx, p, nil)
	_ = s.AddItem(ctx, product("A", "149.50", 5), 2)
	_ = s.AddItem(ctx, product("B", "80", 5), 1)

	reloaded := NewStore(ctx, p, nil)
	items := reloaded.Snapshot()
	if len(items) != 2 || items[0].ProductID != "A" || items[0].Quantity != 2 {
		t.Fatalf("unexpected reloaded items: %+v", items)
	}
	if !items[0].UnitPrice.Equal(decimal.RequireFromString("149.5")) {
		t.Fatalf("expected exact price after reload, got %s", items[0].UnitPrice)
	}

	if err := reloaded.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := NewStore(ctx, p, nil).Count(); got != 0 {
		t.Fatalf("expected cleared cart to persist, got %d", got)
	}
}

func TestStoreLoadsLegacyNumericPrices(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{data: []byte(`[{"id":"A","name":"Silk Rakhi","price":120,"quantity":2,"images":["a.jpg"]}]`)}
	s := NewStore(ctx, p, nil)
	items := s.Snapshot()
	if len(items) != 1 || !items[0].UnitPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Thumbnail != PlaceholderThumbnail {
		t.Fatalf("expected placeholder thumbnail, got %q", items[0].Thumbnail)
	}
}

func TestStoreFailsOpenOnMalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	for name, data := range map[string]string{
		"not json":      `{"broken"`,
		"zero quantity": `[{"id":"A","price":"1","quantity":0}]`,
		"duplicate":     `[{"id":"A","price":"1","quantity":1},{"id":"A","price":"1","quantity":2}]`,
	} {
		t.Run(name, func(t *testing.T) {
			diag := &recordingDiag{}
			s := NewStore(ctx, &memPersistence{data: []byte(data)}, diag)
			if s.Count() != 0 {
				t.Fatalf("expected empty cart")
			}
			if kinds := diag.kinds(); len(kinds) != 1 || kinds[0] != EventSnapshotMalformed {
				t.Fatalf("expected malformed event, got %v", kinds)
			}
		})
	}
}

func TestStoreFailsOpenWhenLoadFails(t *testing.T) {
	ctx := context.Background()
	diag := &recordingDiag{}
	s := NewStore(ctx, &memPersistence{loadErr: errors.New("disk gone")}, diag)
	if s.Count() != 0 {
		t.Fatalf("expected empty cart")
	}
	if !errors.Is(s.PersistenceErr(), ErrPersistenceUnavailable) {
		t.Fatalf("expected persistence error, got %v", s.PersistenceErr())
	}
	if kinds := diag.kinds(); len(kinds) != 1 || kinds[0] != EventLoadFailed {
		t.Fatalf("expected load failure event, got %v", kinds)
	}
}

func TestLoadFailureNeverOverwritesStoredCart(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	first := NewStore(ctx, p, nil)
	for _, id := range []string{"A", "B"} {
		if err := first.AddItem(ctx, product(id, "10", 5), 1); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	p.mu.Lock()
	p.loadErr = errors.New("i/o timeout")
	p.mu.Unlock()
	diag := &recordingDiag{}
	detached := NewStore(ctx, p, diag)
	if !detached.Detached() {
		t.Fatalf("expected store to be detached after a failed load")
	}
	if err := detached.AddItem(ctx, product("C", "10", 5), 1); err != nil {
		t.Fatalf("expected in-memory add to succeed, got %v", err)
	}
	if detached.Count() != 1 {
		t.Fatalf("expected in-memory cart to hold the new line")
	}
	if kinds := diag.kinds(); len(kinds) != 2 || kinds[1] != EventSaveSkipped {
		t.Fatalf("expected skipped save, got %v", kinds)
	}
	if !errors.Is(detached.PersistenceErr(), ErrPersistenceUnavailable) {
		t.Fatalf("expected load failure to stay reported")
	}

	p.mu.Lock()
	p.loadErr = nil
	p.mu.Unlock()
	items := NewStore(ctx, p, nil).Snapshot()
	if len(items) != 2 || items[0].ProductID != "A" || items[1].ProductID != "B" {
		t.Fatalf("expected stored cart untouched, got %+v", items)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{saveErr: errors.New("quota exceeded")}
	diag := &recordingDiag{}
	s := NewStore(ctx, p, diag)

	if err := s.AddItem(ctx, product("A", "10", 5), 2); err != nil {
		t.Fatalf("expected add to succeed despite save failure, got %v", err)
	}
	if s.Count() != 2 {
		t.Fatalf("expected in-memory mutation kept")
	}
	if !errors.Is(s.PersistenceErr(), ErrPersistenceUnavailable) {
		t.Fatalf("expected persistence error, got %v", s.PersistenceErr())
	}
	if kinds := diag.kinds(); len(kinds) != 1 || kinds[0] != EventSaveFailed {
		t.Fatalf("expected save failure event, got %v", kinds)
	}

	p.mu.Lock()
	p.saveErr = nil
	p.mu.Unlock()
	if err := s.SetQuantity(ctx, "A", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.PersistenceErr() != nil {
		t.Fatalf("expected persistence error cleared after successful save")
	}
}

func TestConcurrentAddsNeverExceedStock(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, &memPersistence{}, nil)
	p := product("A", "10", 25)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, p, 1)
		}()
	}
	wg.Wait()
	if got := s.Count(); got != 25 {
		t.Fatalf("expected exactly 25 units, got %d", got)
	}
}
