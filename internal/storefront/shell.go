package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/checkout"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// ErrCheckoutCancelled is returned when the countdown was interrupted.
var ErrCheckoutCancelled = errors.New("checkout cancelled")

// Catalog is the read side of the API the shell needs.
type Catalog interface {
	Products(ctx context.Context, query ProductQuery) (ProductList, error)
	CartProduct(ctx context.Context, id string) (cart.Product, error)
}

// Shell runs storefront commands against a local cart.
type Shell struct {
	Catalog  Catalog
	Pricing  pricing.Source
	Cart     *cart.Store
	Composer checkout.Composer
	Opener   checkout.Opener
	Out      io.Writer
	Currency string
}

var printer = message.NewPrinter(language.English)

func (s *Shell) money(m pricing.Money) string {
	sym := s.Currency
	if sym == "" {
		sym = "₹"
	}
	return sym + printer.Sprintf("%d", m)
}

// Products prints one page of the catalog.
func (s *Shell) Products(ctx context.Context, query ProductQuery) error {
	list, err := s.Catalog.Products(ctx, query)
	if err != nil {
		return err
	}
	if len(list.Items) == 0 {
		fmt.Fprintln(s.Out, "No products found.")
		return nil
	}
	tw := tabwriter.NewWriter(s.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range list.Items {
		availability := fmt.Sprintf("%d", p.Stock)
		if p.OutOfStock || p.Stock <= 0 {
			availability = "out of stock"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CategoryName, s.money(pricing.Round(p.Price)), availability)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pg := list.Pagination
	if pg.TotalPages > 0 {
		fmt.Fprintf(s.Out, "Page %d of %d (%d products)\n", pg.Page, pg.TotalPages, pg.TotalItems)
	}
	return nil
}

// Add fetches the product and adds qty units to the cart.
func (s *Shell) Add(ctx context.Context, productID string, qty int) error {
	p, err := s.Catalog.CartProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.Cart.AddItem(ctx, p, qty); err != nil {
		return err
	}
	s.warnPersistence()
	return s.Show(ctx)
}

// Set replaces the quantity of a line; zero removes it.
func (s *Shell) Set(ctx context.Context, productID string, qty int) error {
	if err := s.Cart.SetQuantity(ctx, productID, qty); err != nil {
		return err
	}
	s.warnPersistence()
	return s.Show(ctx)
}

// Remove deletes a line.
func (s *Shell) Remove(ctx context.Context, productID string) error {
	s.Cart.RemoveItem(ctx, productID)
	s.warnPersistence()
	return s.Show(ctx)
}

// Clear empties the cart.
func (s *Shell) Clear(ctx context.Context) error {
	if err := s.Cart.Clear(ctx); err != nil {
		return err
	}
	s.warnPersistence()
	fmt.Fprintln(s.Out, "Cart cleared.")
	return nil
}

// Show prints the cart lines and totals.
func (s *Shell) Show(ctx context.Context) error {
	items := s.Cart.Snapshot()
	if len(items) == 0 {
		fmt.Fprintln(s.Out, "Your cart is empty.")
		return nil
	}
	cfg, err := s.pricingConfig(ctx)
	if err != nil {
		return err
	}
	totals := pricing.Compute(cart.PricingItems(items), cfg)

	tw := tabwriter.NewWriter(s.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.ProductID, it.Name, it.Quantity,
			s.money(pricing.Round(it.UnitPrice)), s.money(pricing.Round(it.LineTotal())))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Items: %d\n", cart.Count(items))
	fmt.Fprintf(s.Out, "Subtotal: %s\n", s.money(totals.Subtotal))
	if totals.DeliveryCharge == 0 {
		fmt.Fprintln(s.Out, "Delivery: FREE")
	} else {
		fmt.Fprintf(s.Out, "Delivery: %s\n", s.money(totals.DeliveryCharge))
		if gap := pricing.AmountToFreeDelivery(totals.Subtotal, cfg); gap > 0 {
			fmt.Fprintf(s.Out, "Add %s more for free delivery.\n", s.money(gap))
		}
	}
	fmt.Fprintf(s.Out, "Total: %s\n", s.money(totals.Total))
	return nil
}

// Checkout validates the customer and hands the order off after delay.
// Cancelling ctx during the countdown aborts the handoff and keeps the cart.
func (s *Shell) Checkout(ctx context.Context, customer checkout.Customer, delay time.Duration) error {
	flow := &checkout.Flow{
		Cart:     s.Cart,
		Pricing:  s.Pricing,
		Composer: s.Composer,
		Opener:   s.Opener,
		Delay:    delay,
	}
	summary, err := flow.Submit(ctx, customer)
	if err != nil {
		return err
	}
	if delay > 0 {
		fmt.Fprintf(s.Out, "Order total %s. Opening WhatsApp in %s, press Ctrl-C to cancel.\n",
			s.money(summary.Totals.Total), delay)
		select {
		case <-flow.Done():
		case <-ctx.Done():
			if flow.Cancel() {
				fmt.Fprintln(s.Out, "Checkout cancelled; your cart is unchanged.")
				return ErrCheckoutCancelled
			}
			<-flow.Done()
		}
	}
	if err := flow.Err(); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, "Order sent. Your cart has been cleared.")
	return nil
}

func (s *Shell) pricingConfig(ctx context.Context) (pricing.Config, error) {
	if s.Pricing == nil {
		return pricing.Config{}, nil
	}
	return s.Pricing.PricingConfig(ctx)
}

func (s *Shell) warnPersistence() {
	if err := s.Cart.PersistenceErr(); err != nil {
		fmt.Fprintf(s.Out, "warning: cart not saved: %v\n", err)
	}
}

// PrintOpener writes the composed message and handoff link to w.
func PrintOpener(w io.Writer) checkout.Opener {
	return checkout.OpenerFunc(func(_ context.Context, summary checkout.Summary) error {
		fmt.Fprintln(w, summary.Message)
		fmt.Fprintln(w)
		fmt.Fprintln(w, summary.URL)
		return nil
	})
}
