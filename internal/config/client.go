package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client configures the storefront command-line client.
type Client struct {
	APIURL         string
	DBPath         string
	CartName       string
	CheckoutDelay  time.Duration
	StoreName      string
	WhatsAppPhone  string
	LogFormat      string
	LogLevel       string
	RequestTimeout time.Duration
	RetryMax       int
	RetryBase      time.Duration
}

// LoadClient reads storefront settings. Nothing is required: every value has
// a local default.
func LoadClient() (*Client, error) {
	k, err := loadKoanf()
	if err != nil {
		return nil, err
	}
	dbPath := strings.TrimSpace(k.String("STOREFRONT_DB_PATH"))
	if dbPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		dbPath = filepath.Join(dir, "rakhimart", "cart.db")
	}
	return &Client{
		APIURL:         strings.TrimRight(valueOrDefault(k.String("STOREFRONT_API_URL"), "http://localhost:8080"), "/"),
		DBPath:         dbPath,
		CartName:       valueOrDefault(k.String("STOREFRONT_CART_NAME"), "cart"),
		CheckoutDelay:  parseDuration(k.String("STOREFRONT_CHECKOUT_DELAY"), "1s"),
		StoreName:      valueOrDefault(k.String("STORE_NAME"), "RakhiMart"),
		WhatsAppPhone:  valueOrDefault(k.String("WHATSAPP_PHONE"), "917696400902"),
		LogFormat:      valueOrDefault(k.String("LOG_FORMAT"), "console"),
		LogLevel:       valueOrDefault(k.String("LOG_LEVEL"), "warn"),
		RequestTimeout: parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryMax:       parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryBase:      parseDuration(k.String("RETRY_BASE"), "200ms"),
	}, nil
}

// LoadClientForTests is LoadClient with temporary environment overrides.
func LoadClientForTests(env map[string]string) (*Client, error) {
	var cfg *Client
	err := withEnv(env, func() error {
		var err error
		cfg, err = LoadClient()
		return err
	})
	return cfg, err
}
