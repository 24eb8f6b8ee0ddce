// Package storefront is the HTTP client the storefront CLI uses to read the
// catalog and site settings from the API.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/catalog"
	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/pricing"
	"github.com/noah-isme/rakhimart/internal/resilience"
	"github.com/noah-isme/rakhimart/internal/settings"
)

// ErrNotFound is returned when the API reports a missing resource.
var ErrNotFound = errors.New("storefront: not found")

type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// APIError carries the error envelope returned by the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// Client reads catalog and settings. It satisfies cart.ProductLookup and
// pricing.Source.
type Client struct {
	base     string
	http     doer
	fallback pricing.Config
	logger   zerolog.Logger

	group singleflight.Group
	mu    sync.Mutex
	last  *pricing.Config
}

// Options configures NewClient.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	Fallback    pricing.Config
	Logger      zerolog.Logger
	// HTTP overrides the resilient client; tests pass plain clients.
	HTTP doer
}

// NewClient constructs a Client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = resilience.NewHTTPClient(resilience.ClientOptions{
			Target:        "storefront-api",
			Timeout:       opts.Timeout,
			MaxAttempts:   opts.MaxAttempts,
			BaseBackoff:   opts.BaseBackoff,
			JitterPercent: 20,
			Logger:        opts.Logger,
		})
	}
	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		fallback: opts.Fallback,
		logger:   opts.Logger,
	}
}

// ProductList is one page of the product listing.
type ProductList struct {
	Items      []catalog.Product
	Pagination common.Pagination
}

// ProductQuery selects a page of the product listing. Zero fields are left
// to the server defaults.
type ProductQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
	MinPrice string
	MaxPrice string
	Sort     string
}

func (pq ProductQuery) values() url.Values {
	q := url.Values{}
	if pq.Page > 0 {
		q.Set("page", strconv.Itoa(pq.Page))
	}
	if pq.Limit > 0 {
		q.Set("limit", strconv.Itoa(pq.Limit))
	}
	for key, v := range map[string]string{
		"category": pq.Category,
		"q":        pq.Search,
		"minPrice": pq.MinPrice,
		"maxPrice": pq.MaxPrice,
		"sort":     pq.Sort,
	} {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(key, v)
		}
	}
	return q
}

// Products lists products matching query.
func (c *Client) Products(ctx context.Context, query ProductQuery) (ProductList, error) {
	q := query.values()
	var env common.Envelope[[]catalog.Product]
	if err := c.get(ctx, "/api/v1/products", q, &env); err != nil {
		return ProductList{}, err
	}
	out := ProductList{Items: env.Data}
	if env.Pagination != nil {
		out.Pagination = *env.Pagination
	}
	return out, nil
}

// Product fetches one product.
func (c *Client) Product(ctx context.Context, id string) (catalog.Product, error) {
	var env common.Envelope[catalog.Product]
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(id), nil, &env); err != nil {
		return catalog.Product{}, err
	}
	return env.Data, nil
}

// CartProduct implements cart.ProductLookup.
func (c *Client) CartProduct(ctx context.Context, id string) (cart.Product, error) {
	p, err := c.Product(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return cart.Product{}, fmt.Errorf("%w: %s", cart.ErrNotFound, id)
		}
		return cart.Product{}, err
	}
	return cart.Product{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Images:     p.Images,
		Stock:      p.Stock,
		OutOfStock: p.OutOfStock,
	}, nil
}

// Settings fetches site settings.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	var env common.Envelope[settings.Settings]
	if err := c.get(ctx, "/api/v1/settings", nil, &env); err != nil {
		return settings.Settings{}, err
	}
	return env.Data, nil
}

// PricingConfig implements pricing.Source. Concurrent callers share one
// request. When the API is unreachable the last known config is returned, or
// the fallback before the first successful read.
func (c *Client) PricingConfig(ctx context.Context) (pricing.Config, error) {
	v, err, _ := c.group.Do("settings", func() (any, error) {
		st, err := c.Settings(ctx)
		if err != nil {
			return nil, err
		}
		cfg := settings.ParsePricing(st, c.fallback)
		c.mu.Lock()
		c.last = &cfg
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		c.mu.Lock()
		last := c.last
		c.mu.Unlock()
		c.logger.Warn().Err(err).Bool("last_known", last != nil).Msg("settings unavailable for pricing")
		if last != nil {
			return *last, nil
		}
		return c.fallback, nil
	}
	return v.(pricing.Config), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("storefront: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("storefront: read %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		var env common.Envelope[json.RawMessage]
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("storefront: decode %s: %w", path, err)
	}
	return nil
}
