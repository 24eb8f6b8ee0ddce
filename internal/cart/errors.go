package cart

import "errors"

var (
	// ErrStockUnavailable is returned when a product is out of stock.
	ErrStockUnavailable = errors.New("product is out of stock")
	// ErrStockLimitExceeded is returned when a quantity would exceed available stock.
	ErrStockLimitExceeded = errors.New("quantity exceeds available stock")
	// ErrInvalidQuantity is returned for negative quantities or deltas.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidProduct is returned when a product snapshot lacks an id or has a negative price.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrNotFound indicates the requested line item or product could not be located.
	ErrNotFound = errors.New("not found")
	// ErrPersistenceUnavailable wraps failures of the backing persistence.
	// In-memory state remains authoritative when it is reported.
	ErrPersistenceUnavailable = errors.New("cart persistence unavailable")
	// ErrSnapshotMissing is returned by Persistence.Load when nothing was saved yet.
	ErrSnapshotMissing = errors.New("cart snapshot missing")
	// ErrInvalidSession is returned for malformed session identifiers.
	ErrInvalidSession = errors.New("invalid cart session")
)
