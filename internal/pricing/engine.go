package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in whole currency units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Config holds the site-wide delivery rules.
type Config struct {
	DeliveryFee           Money `json:"deliveryFee"`
	FreeDeliveryThreshold Money `json:"freeDeliveryThreshold"`
}

// Totals aggregates computed pricing components.
type Totals struct {
	Subtotal       Money `json:"subtotal"`
	DeliveryCharge Money `json:"deliveryCharge"`
	Total          Money `json:"total"`
}

// Source supplies the latest known pricing configuration.
type Source interface {
	PricingConfig(ctx context.Context) (Config, error)
}

// Static is a Source that always returns the same configuration.
type Static Config

// PricingConfig implements Source.
func (s Static) PricingConfig(context.Context) (Config, error) {
	return Config(s), nil
}

// Compute calculates cart totals for the provided items. Delivery is waived when
// the subtotal reaches the threshold; the comparison is inclusive.
func Compute(items []Item, cfg Config) Totals {
	subtotal := Subtotal(items)
	delivery := cfg.DeliveryFee
	if delivery < 0 {
		delivery = 0
	}
	if subtotal >= cfg.FreeDeliveryThreshold {
		delivery = 0
	}
	return Totals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		Total:          subtotal + delivery,
	}
}

// Subtotal sums the line totals exactly and rounds the result to whole units.
func Subtotal(items []Item) Money {
	sum := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 || it.UnitPrice.IsNegative() {
			continue
		}
		sum = sum.Add(LineTotal(it))
	}
	return Round(sum)
}

// LineTotal returns the exact unit price multiplied by quantity.
func LineTotal(it Item) decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Round rounds an exact amount half away from zero to whole units.
func Round(amount decimal.Decimal) Money {
	return amount.Round(0).IntPart()
}

// AmountToFreeDelivery reports how much more needs to be spent before delivery
// becomes free. It is zero once the threshold is met.
func AmountToFreeDelivery(subtotal Money, cfg Config) Money {
	if subtotal >= cfg.FreeDeliveryThreshold {
		return 0
	}
	return cfg.FreeDeliveryThreshold - subtotal
}
