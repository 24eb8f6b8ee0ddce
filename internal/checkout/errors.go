package checkout

import "errors"

var (
	// ErrMissingField is the sentinel wrapped by MissingFieldError.
	ErrMissingField = errors.New("missing required field")
	// ErrEmptyCart is returned when checkout is attempted with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutInProgress is returned when a countdown or handoff is already running.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// MissingFieldError names the first required customer field that is blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// Unwrap lets errors.Is match ErrMissingField.
func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
