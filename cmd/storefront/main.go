package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/checkout"
	"github.com/noah-isme/rakhimart/internal/config"
	"github.com/noah-isme/rakhimart/internal/obs"
	"github.com/noah-isme/rakhimart/internal/pricing"
	"github.com/noah-isme/rakhimart/internal/storefront"
)

const usage = `usage:
  storefront products [-page N] [-limit N] [-category NAME] [-q TEXT] [-min N] [-max N] [-sort ORDER]
  storefront cart show
  storefront cart add <productId> [-qty N]
  storefront cart set <productId> <qty>
  storefront cart remove <productId>
  storefront cart clear
  storefront checkout -name NAME -phone PHONE -address ADDRESS [-email EMAIL] [-delay 1s]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		if errors.Is(err, storefront.ErrCheckoutCancelled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	logger := obs.NewLoggerTo(stderr, cfg.LogFormat, cfg.LogLevel).With().Str("component", "storefront").Logger()

	client := storefront.NewClient(storefront.Options{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.RetryMax,
		BaseBackoff: cfg.RetryBase,
		Fallback:    pricing.Config{DeliveryFee: 50, FreeDeliveryThreshold: 200},
		Logger:      logger,
	})

	if args[0] == "products" {
		fs := flag.NewFlagSet("products", flag.ContinueOnError)
		fs.SetOutput(stderr)
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", 12, "products per page")
		category := fs.String("category", "", "category name or id")
		search := fs.String("q", "", "search product names and descriptions")
		minPrice := fs.String("min", "", "minimum price")
		maxPrice := fs.String("max", "", "maximum price")
		order := fs.String("sort", "", "default, price-low, price-high, name or rating")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		shell := &storefront.Shell{Catalog: client, Out: stdout}
		return shell.Products(ctx, storefront.ProductQuery{
			Page:     *page,
			Limit:    *limit,
			Category: *category,
			Search:   *search,
			MinPrice: *minPrice,
			MaxPrice: *maxPrice,
			Sort:     *order,
		})
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create cart directory: %w", err)
	}
	db, err := cart.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := cart.NewStore(ctx, &cart.SQLitePersistence{DB: db, Name: cfg.CartName}, cart.LogDiagnostics{Logger: logger})
	shell := &storefront.Shell{
		Catalog:  client,
		Pricing:  client,
		Cart:     store,
		Composer: checkout.Composer{StoreName: cfg.StoreName, Phone: cfg.WhatsAppPhone},
		Opener:   storefront.PrintOpener(stdout),
		Out:      stdout,
	}

	switch args[0] {
	case "cart":
		return runCart(ctx, shell, args[1:], stderr)
	case "checkout":
		return runCheckout(ctx, shell, args[1:], cfg.CheckoutDelay, stderr)
	default:
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
}

func runCart(ctx context.Context, shell *storefront.Shell, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return shell.Show(ctx)
	}
	switch args[0] {
	case "show":
		return shell.Show(ctx)
	case "clear":
		return shell.Clear(ctx)
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		fs.SetOutput(stderr)
		qty := fs.Int("qty", 1, "units to add")
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return flag.ErrHelp
		}
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		return shell.Add(ctx, args[1], *qty)
	case "set":
		if len(args) != 3 {
			fmt.Fprint(stderr, usage)
			return flag.ErrHelp
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %w", err)
		}
		return shell.Set(ctx, args[1], qty)
	case "remove":
		if len(args) != 2 {
			fmt.Fprint(stderr, usage)
			return flag.ErrHelp
		}
		return shell.Remove(ctx, args[1])
	default:
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
}

func runCheckout(ctx context.Context, shell *storefront.Shell, args []string, defaultDelay time.Duration, stderr io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var customer checkout.Customer
	fs.StringVar(&customer.Name, "name", "", "customer name")
	fs.StringVar(&customer.Phone, "phone", "", "customer phone")
	fs.StringVar(&customer.Address, "address", "", "delivery address")
	fs.StringVar(&customer.Email, "email", "", "customer email (optional)")
	delay := fs.Duration("delay", defaultDelay, "countdown before the handoff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return shell.Checkout(ctx, customer, *delay)
}
