// Package config loads runtime configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// StripeSecretKey authenticates outbound checkout-session calls.
	StripeSecretKey string
	// StripeWebhookSecret verifies inbound webhook signatures.
	StripeWebhookSecret string
	// AppURL is the public origin buyers return to after checkout.
	AppURL string

	// DatabaseURL selects the entitlement store backend by scheme:
	// postgres://, mongodb://, a sqlite file path, or empty for the
	// in-memory store.
	DatabaseURL string
	// RedisURL, when set, enables cross-process watch broadcasting.
	RedisURL string

	// AuthSecret signs and verifies client bearer tokens. Optional: when
	// empty the API trusts the uid claims it is handed.
	AuthSecret string

	// CatalogPath points at the lesson catalog JSON file.
	CatalogPath string

	// PriceCents and PriceName override the default offering.
	PriceCents int64
	PriceName  string

	// WebhookTolerance bounds signature timestamp drift.
	WebhookTolerance time.Duration
}

// Load reads configuration from the environment. A .env file at the
// working directory is merged in first if present; real environment
// variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                getEnvInt("PORT", 3000),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AppURL:              os.Getenv("APP_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AuthSecret:          os.Getenv("AUTH_SECRET"),
		CatalogPath:         getEnv("CATALOG_PATH", "lessons.json"),
		PriceCents:          getEnvInt64("PRICE_CENTS", 2990),
		PriceName:           getEnv("PRICE_NAME", "Full Course Access"),
		WebhookTolerance:    getEnvDuration("WEBHOOK_TOLERANCE", 5*time.Minute),
	}

	return cfg, cfg.Validate()
}

// Validate checks that every required setting is present.
func (c Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("config: STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("config: STRIPE_WEBHOOK_SECRET is required")
	}
	if c.AppURL == "" {
		return fmt.Errorf("config: APP_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
