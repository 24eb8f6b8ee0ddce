// Package settings manages the single site settings record and derives the
// pricing configuration from it.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/pricing"
)

// Settings mirrors the stored record. Amounts are kept as strings, as entered
// by the shop owner.
type Settings struct {
	DeliveryCharges     string `json:"delivery_charges" validate:"omitempty,amount"`
	FreeDeliveryMinimum string `json:"free_delivery_minimum" validate:"omitempty,amount"`
	ContactPhone        string `json:"contact_phone"`
	ContactEmail        string `json:"contact_email" validate:"omitempty,email"`
	SiteTitle           string `json:"site_title"`
	SiteDescription     string `json:"site_description"`
}

type queryProvider interface {
	GetSettings(ctx context.Context) (db.Settings, error)
	UpsertSettings(ctx context.Context, arg db.Settings) (db.Settings, error)
}

// Service reads and updates site settings.
type Service struct {
	queries  queryProvider
	defaults Settings
	fallback pricing.Config
	validate *validator.Validate
	logger   zerolog.Logger

	mu        sync.Mutex
	lastKnown *pricing.Config
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries  queryProvider
	Defaults Settings
	// Fallback is used for pricing until settings have been read once.
	Fallback pricing.Config
	Logger   zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("settings: queries provider is required")
	}
	v := common.NewValidator()
	if err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := parseAmount(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("settings: register validator: %w", err)
	}
	return &Service{
		queries:  cfg.Queries,
		defaults: cfg.Defaults,
		fallback: cfg.Fallback,
		validate: v,
		logger:   cfg.Logger,
	}, nil
}

// Get returns the settings record, creating it from defaults when missing.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	row, err := s.queries.GetSettings(ctx)
	if err == nil {
		return fromRow(row), nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	row, err = s.queries.UpsertSettings(ctx, toRow(s.defaults))
	if err != nil {
		return Settings{}, fmt.Errorf("create default settings: %w", err)
	}
	return fromRow(row), nil
}

// Update applies a partial update: empty fields keep their current values.
func (s *Service) Update(ctx context.Context, patch Settings) (Settings, error) {
	patch = patch.trimmed()
	if err := s.validate.Struct(patch); err != nil {
		return Settings{}, common.ValidationError(err)
	}
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	next := Settings{
		DeliveryCharges:     firstNonEmpty(patch.DeliveryCharges, current.DeliveryCharges),
		FreeDeliveryMinimum: firstNonEmpty(patch.FreeDeliveryMinimum, current.FreeDeliveryMinimum),
		ContactPhone:        firstNonEmpty(patch.ContactPhone, current.ContactPhone),
		ContactEmail:        firstNonEmpty(patch.ContactEmail, current.ContactEmail),
		SiteTitle:           firstNonEmpty(patch.SiteTitle, current.SiteTitle),
		SiteDescription:     firstNonEmpty(patch.SiteDescription, current.SiteDescription),
	}
	row, err := s.queries.UpsertSettings(ctx, toRow(next))
	if err != nil {
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}
	updated := fromRow(row)
	s.remember(ParsePricing(updated, s.fallback))
	return updated, nil
}

// PricingConfig reads the current delivery settings. When storage is
// unreachable the last known configuration is used, or the fallback before
// any successful read.
func (s *Service) PricingConfig(ctx context.Context) (pricing.Config, error) {
	current, err := s.Get(ctx)
	if err != nil {
		s.mu.Lock()
		last := s.lastKnown
		s.mu.Unlock()
		s.logger.Warn().Err(err).Bool("last_known", last != nil).Msg("settings unavailable for pricing")
		if last != nil {
			return *last, nil
		}
		return s.fallback, nil
	}
	cfg := ParsePricing(current, s.fallback)
	s.remember(cfg)
	return cfg, nil
}

func (s *Service) remember(cfg pricing.Config) {
	s.mu.Lock()
	s.lastKnown = &cfg
	s.mu.Unlock()
}

// ParsePricing converts stored amounts into whole-unit pricing values.
// Fractions are truncated; blank, malformed or negative amounts use fallback.
func ParsePricing(st Settings, fallback pricing.Config) pricing.Config {
	cfg := fallback
	if v, err := parseAmount(st.DeliveryCharges); err == nil {
		cfg.DeliveryFee = v
	}
	if v, err := parseAmount(st.FreeDeliveryMinimum); err == nil {
		cfg.FreeDeliveryThreshold = v
	}
	return cfg
}

func parseAmount(raw string) (pricing.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", raw)
	}
	return pricing.Money(d.IntPart()), nil
}

func (st Settings) trimmed() Settings {
	return Settings{
		DeliveryCharges:     strings.TrimSpace(st.DeliveryCharges),
		FreeDeliveryMinimum: strings.TrimSpace(st.FreeDeliveryMinimum),
		ContactPhone:        strings.TrimSpace(st.ContactPhone),
		ContactEmail:        strings.TrimSpace(st.ContactEmail),
		SiteTitle:           strings.TrimSpace(st.SiteTitle),
		SiteDescription:     strings.TrimSpace(st.SiteDescription),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func fromRow(row db.Settings) Settings {
	return Settings{
		DeliveryCharges:     row.DeliveryCharges,
		FreeDeliveryMinimum: row.FreeDeliveryMinimum,
		ContactPhone:        row.ContactPhone,
		ContactEmail:        row.ContactEmail,
		SiteTitle:           row.SiteTitle,
		SiteDescription:     row.SiteDescription,
	}
}

func toRow(st Settings) db.Settings {
	return db.Settings{
		DeliveryCharges:     st.DeliveryCharges,
		FreeDeliveryMinimum: st.FreeDeliveryMinimum,
		ContactPhone:        st.ContactPhone,
		ContactEmail:        st.ContactEmail,
		SiteTitle:           st.SiteTitle,
		SiteDescription:     st.SiteDescription,
	}
}
