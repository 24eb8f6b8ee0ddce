package checkout

import (
	"errors"
	"testing"
)

func TestValidateCustomerReportsFirstMissingField(t *testing.T) {
	cases := []struct {
		name     string
		customer Customer
		field    string
	}{
		{name: "all blank", customer: Customer{}, field: "name"},
		{name: "name whitespace", customer: Customer{Name: "   ", Phone: "98", Address: "x"}, field: "name"},
		{name: "phone missing", customer: Customer{Name: "Asha", Address: "Pune"}, field: "phone"},
		{name: "address missing", customer: Customer{Name: "Asha", Phone: "98", Address: "\t"}, field: "address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCustomer(tc.customer)
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if missing.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, missing.Field)
			}
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField in chain")
			}
		})
	}
}

func TestValidateCustomerAcceptsOptionalEmail(t *testing.T) {
	c := Customer{Name: "Asha", Phone: "9800000000", Address: "12 MG Road, Pune"}
	if err := ValidateCustomer(c); err != nil {
		t.Fatalf("expected valid customer, got %v", err)
	}
	c.Email = "asha@example.com"
	if err := ValidateCustomer(c); err != nil {
		t.Fatalf("expected valid customer with email, got %v", err)
	}
	c.Email = "not-an-email"
	var invalid *InvalidFieldError
	if err := ValidateCustomer(c); !errors.As(err, &invalid) || invalid.Field != "email" {
		t.Fatalf("expected invalid email error, got %v", err)
	}
}
