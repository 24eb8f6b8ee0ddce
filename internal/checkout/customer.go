package checkout

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Customer holds the contact details captured at checkout. Field order
// determines which missing field is reported first.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address" validate:"required"`
}

var validate = common.NewValidator()

// Normalize trims surrounding whitespace from every field.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

// ValidateCustomer checks that name, phone and address are present. Blank or
// whitespace-only values count as missing. The first missing field is reported
// as a *MissingFieldError.
func ValidateCustomer(c Customer) error {
	err := validate.Struct(c.Normalize())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &MissingFieldError{Field: fe.Field()}
		}
	}
	return &InvalidFieldError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
}

// InvalidFieldError reports an optional field that is present but malformed.
type InvalidFieldError struct {
	Field string
	Rule  string
}

func (e *InvalidFieldError) Error() string {
	return "invalid field " + e.Field + ": must be a valid " + e.Rule
}
