package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/rakhimart/internal/pricing"
)

// PlaceholderThumbnail is used when a product has no images.
const PlaceholderThumbnail = "/placeholder.svg"

// Product is the catalog view the cart needs when adding an item.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Images     []string
	Stock      int
	OutOfStock bool
}

// Thumbnail returns the first image or the placeholder.
func (p Product) Thumbnail() string {
	for _, img := range p.Images {
		if s := strings.TrimSpace(img); s != "" {
			return s
		}
	}
	return PlaceholderThumbnail
}

// LineItem is a product entry in the cart. Name, price and thumbnail are
// captured when the product is first added; stock is refreshed on every add.
type LineItem struct {
	ProductID  string          `json:"id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Thumbnail  string          `json:"thumbnail"`
	Stock      int             `json:"stock"`
	OutOfStock bool            `json:"outOfStock,omitempty"`
}

// LineTotal returns the exact unit price multiplied by quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return pricing.LineTotal(li.pricingItem())
}

func (li LineItem) pricingItem() pricing.Item {
	return pricing.Item{Qty: li.Quantity, UnitPrice: li.UnitPrice}
}

// PricingItems converts line items into pricing inputs.
func PricingItems(items []LineItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.pricingItem())
	}
	return out
}

// Count returns the total number of units across items.
func Count(items []LineItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

func newLineItem(p Product, qty int) LineItem {
	return LineItem{
		ProductID:  strings.TrimSpace(p.ID),
		Name:       p.Name,
		UnitPrice:  p.Price,
		Quantity:   qty,
		Thumbnail:  p.Thumbnail(),
		Stock:      p.Stock,
		OutOfStock: p.OutOfStock,
	}
}
