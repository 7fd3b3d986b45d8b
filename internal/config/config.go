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

	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	CurrencyCode       string

	DeliveryFeeInside  int64
	DeliveryFeeOutside int64
	GiftWrapFee        int64
	LoyaltyPointValue  int64
	BulkTiers          []pricing.Tier

	CartTTL         time.Duration
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	QuoteRateMax       int
	QuoteRateWindow    time.Duration
	CheckoutRateMax    int
	CheckoutRateWindow time.Duration

	QueueRedisPrefix string
	QueueMaxAttempts int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "BDT"),

		DeliveryFeeInside:  parseMoney(k.String("DELIVERY_FEE_INSIDE"), 60),
		DeliveryFeeOutside: parseMoney(k.String("DELIVERY_FEE_OUTSIDE"), 120),
		GiftWrapFee:        parseMoney(k.String("GIFT_WRAP_FEE"), 50),
		LoyaltyPointValue:  parseMoney(k.String("LOYALTY_POINT_VALUE"), 1),
		BulkTiers:          ParseTierSpec(valueOrDefault(k.String("BULK_TIERS"), "quantity:5:5,quantity:10:10")),

		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "30s"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		QuoteRateMax:       parseInt(k.String("QUOTE_RATE_MAX"), 60),
		QuoteRateWindow:    parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),
		CheckoutRateMax:    parseInt(k.String("CHECKOUT_RATE_MAX"), 10),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),

		QueueRedisPrefix: valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "bliss"),
		QueueMaxAttempts: parseInt(k.String("QUEUE_MAX_ATTEMPTS"), 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DeliveryFeeInside < 0 || cfg.DeliveryFeeOutside < 0 {
		return nil, errors.New("delivery fees must be non-negative")
	}

	return cfg, nil
}

// FeeTable builds the pricing fee table from configuration.
func (c *Config) FeeTable() pricing.FeeTable {
	return pricing.FeeTable{InsideZone: c.DeliveryFeeInside, OutsideZone: c.DeliveryFeeOutside}
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

// ParseTierSpec parses a bulk tier specification of the form
// "basis:threshold:percent[,...]" where basis is "quantity" or "subtotal".
// Malformed entries are skipped rather than failing the whole load.
func ParseTierSpec(spec string) []pricing.Tier {
	parts := splitAndTrim(spec)
	tiers := make([]pricing.Tier, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			continue
		}
		var basis pricing.TierBasis
		switch strings.ToLower(strings.TrimSpace(fields[0])) {
		case "quantity", "qty":
			basis = pricing.BasisQuantity
		case "subtotal":
			basis = pricing.BasisSubtotal
		default:
			continue
		}
		threshold, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil || threshold < 0 {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || percent <= 0 || percent > 100 {
			continue
		}
		tiers = append(tiers, pricing.Tier{Basis: basis, Threshold: threshold, Percent: percent})
	}
	return tiers
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
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseMoney(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
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
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
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
