package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds API and worker configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	LogFormat        string
	LogLevel         string
	ServiceName      string
	TracingExporter  string
	TracingEndpoint  string
	TracingSampling  float64
	MetricsBucketsMS string

	AdminPassword     string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration
	TokenIssuer       string
	TokenAudience     string
	LoginRateLimit    string

	CartTTL        time.Duration
	CartLockTTL    time.Duration
	CartLockWait   time.Duration
	IdempotencyTTL time.Duration

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	DefaultDeliveryFee         int64
	DefaultFreeDeliveryMinimum int64
	StoreName                  string
	WhatsAppPhone              string
	DefaultContactEmail        string
	DefaultSiteDescription     string
	OrderNotificationEmail     string
	OrderNotificationQueue     string
	WorkerConcurrency          int

	MediaCloudName string
	MediaAPIKey    string
	MediaAPISecret string
	MediaBaseURL   string
	UploadMaxBytes int64
	UploadMaxFiles int

	RateLimitWindow time.Duration
	RateLimitMax    int

	// CartWriteLimitMax caps writes per cart session within RateLimitWindow.
	CartWriteLimitMax int

	OutboundTimeout    time.Duration
	RetryMaxAttempts   int
	RetryBase          time.Duration
	RetryJitterPercent int
}

func loadKoanf() (*koanf.Koanf, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return k, nil
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	k, err := loadKoanf()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		LogFormat:        valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		ServiceName:      valueOrDefault(k.String("SERVICE_NAME"), "rakhimart-api"),
		TracingExporter:  valueOrDefault(k.String("OTEL_EXPORTER"), "none"),
		TracingEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingSampling:  parseFloat(k.String("OTEL_SAMPLING_RATIO"), 1),
		MetricsBucketsMS: k.String("METRICS_BUCKETS_MS"),

		AdminPassword:     k.String("ADMIN_PASSWORD"),
		AdminPasswordHash: strings.TrimSpace(k.String("ADMIN_PASSWORD_HASH")),
		AdminTokenTTL:     parseDuration(k.String("ADMIN_TOKEN_TTL"), "1h"),
		TokenIssuer:       valueOrDefault(k.String("TOKEN_ISSUER"), "rakhimart"),
		TokenAudience:     valueOrDefault(k.String("TOKEN_AUDIENCE"), "rakhimart-admin"),
		LoginRateLimit:    valueOrDefault(k.String("LOGIN_RATE_LIMIT"), "5-M"),

		CartTTL:        parseDuration(k.String("CART_TTL"), "168h"),
		CartLockTTL:    parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CartLockWait:   parseDuration(k.String("CART_LOCK_WAIT"), "2s"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 12),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		DefaultDeliveryFee:         parseInt64(k.String("DEFAULT_DELIVERY_FEE"), 50),
		DefaultFreeDeliveryMinimum: parseInt64(k.String("DEFAULT_FREE_DELIVERY_MINIMUM"), 200),
		StoreName:                  valueOrDefault(k.String("STORE_NAME"), "RakhiMart"),
		WhatsAppPhone:              valueOrDefault(k.String("WHATSAPP_PHONE"), "917696400902"),
		DefaultContactEmail:        valueOrDefault(k.String("DEFAULT_CONTACT_EMAIL"), "info@rakhimart.com"),
		DefaultSiteDescription:     valueOrDefault(k.String("DEFAULT_SITE_DESCRIPTION"), "Beautiful handcrafted rakhis for your beloved siblings"),
		OrderNotificationEmail:     strings.TrimSpace(k.String("NOTIFY_EMAIL_TO")),
		OrderNotificationQueue:     valueOrDefault(k.String("NOTIFY_QUEUE"), "default"),
		WorkerConcurrency:          parseInt(k.String("WORKER_CONCURRENCY"), 5),

		MediaCloudName: strings.TrimSpace(k.String("MEDIA_CLOUD_NAME")),
		MediaAPIKey:    strings.TrimSpace(k.String("MEDIA_API_KEY")),
		MediaAPISecret: strings.TrimSpace(k.String("MEDIA_API_SECRET")),
		MediaBaseURL:   valueOrDefault(k.String("MEDIA_BASE_URL"), "https://api.cloudinary.com"),
		UploadMaxBytes: parseInt64(k.String("UPLOAD_MAX_BYTES"), 5<<20),
		UploadMaxFiles: parseInt(k.String("UPLOAD_MAX_FILES"), 3),

		RateLimitWindow:   parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:      parseInt(k.String("RATE_LIMIT_MAX"), 120),
		CartWriteLimitMax: parseInt(k.String("CART_WRITE_LIMIT_MAX"), 60),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryMaxAttempts:   parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryBase:          parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryJitterPercent: parseInt(k.String("RETRY_JITTER_PERCENT"), 20),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return nil, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if cfg.DefaultDeliveryFee < 0 || cfg.DefaultFreeDeliveryMinimum < 0 {
		return nil, errors.New("delivery defaults must not be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// MediaConfigured reports whether image upload credentials are present.
func (c *Config) MediaConfigured() bool {
	return c.MediaCloudName != "" && c.MediaAPIKey != "" && c.MediaAPISecret != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	var cfg *Config
	err := withEnv(env, func() error {
		var err error
		cfg, err = Load()
		return err
	})
	return cfg, err
}

func withEnv(env map[string]string, fn func() error) error {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return err
		}
	}
	err := fn()
	restoreErr := restoreEnv(original)
	if err != nil {
		return err
	}
	return restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
