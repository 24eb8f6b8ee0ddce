package checkout

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// DefaultHandoffBase is the click-to-chat endpoint orders are sent to.
const DefaultHandoffBase = "https://wa.me/"

// Composer renders order summaries and the messaging handoff link.
type Composer struct {
	StoreName      string
	Phone          string
	BaseURL        string
	CurrencySymbol string
}

// Summary is a composed order ready for handoff.
type Summary struct {
	Items    []cart.LineItem `json:"items"`
	Totals   pricing.Totals  `json:"totals"`
	Customer Customer        `json:"customer"`
	Message  string          `json:"message"`
	URL      string          `json:"whatsappUrl"`
}

var amountPrinter = message.NewPrinter(language.English)

func (c Composer) storeName() string {
	if strings.TrimSpace(c.StoreName) == "" {
		return "RakhiMart"
	}
	return c.StoreName
}

func (c Composer) symbol() string {
	if c.CurrencySymbol == "" {
		return "₹"
	}
	return c.CurrencySymbol
}

func (c Composer) amount(m pricing.Money) string {
	return c.symbol() + amountPrinter.Sprintf("%d", m)
}

// Summarize composes the message and handoff URL for the given order.
func (c Composer) Summarize(items []cart.LineItem, totals pricing.Totals, customer Customer) Summary {
	customer = customer.Normalize()
	text := c.Compose(items, totals, customer)
	return Summary{
		Items:    items,
		Totals:   totals,
		Customer: customer,
		Message:  text,
		URL:      c.HandoffURL(text),
	}
}

// Compose renders the human-readable order message. It is a pure function of
// its inputs. Each line amount is rounded on its own while the subtotal comes
// from totals, so rounded lines need not add up to it.
func (c Composer) Compose(items []cart.LineItem, totals pricing.Totals, customer Customer) string {
	email := customer.Email
	if email == "" {
		email = "Not provided"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "• "+it.Name+" x "+amountPrinter.Sprintf("%d", it.Quantity)+" = "+c.amount(pricing.Round(it.LineTotal())))
	}
	delivery := c.amount(totals.DeliveryCharge)
	if totals.DeliveryCharge == 0 {
		delivery = "FREE"
	}

	var b strings.Builder
	b.WriteString("🛍️ *New Order from " + c.storeName() + "*\n\n")
	b.WriteString("*Customer Details:*\n")
	b.WriteString("Name: " + customer.Name + "\n")
	b.WriteString("Phone: " + customer.Phone + "\n")
	b.WriteString("Email: " + email + "\n")
	b.WriteString("Address: " + customer.Address + "\n\n")
	b.WriteString("*Order Items:*\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n*Order Summary:*\n")
	b.WriteString("Subtotal: " + c.amount(totals.Subtotal) + "\n")
	b.WriteString("Delivery: " + delivery + "\n")
	b.WriteString("*Total: " + c.amount(totals.Total) + "*\n\n")
	b.WriteString("Please confirm this order. Thank you! 🙏")
	return b.String()
}

// HandoffURL builds the click-to-chat link carrying text. Spaces are encoded as %20.
func (c Composer) HandoffURL(text string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultHandoffBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + digitsOnly(c.Phone) + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
