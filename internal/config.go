package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	BaseURL  string
	HTTP     HTTPConfig
	Commerce CommerceConfig
	Store    StoreConfig
	Features FeatureConfig
	Upload   UploadConfig
	Sentry   SentryConfig
}

// HTTPConfig holds request-handling limits for the API server.
type HTTPConfig struct {
	RequestTimeoutSeconds int
	RateLimitRPS          float64
	RateLimitBurst        int

	// AllowedOrigins lists storefront origins allowed to call the API from
	// the browser.
	AllowedOrigins []string
}

// CommerceConfig points at the GraphQL endpoint that fronts the product
// search and cart collaborators.
type CommerceConfig struct {
	GraphQLURL     string
	APIToken       string
	ChannelID      string
	TimeoutSeconds int

	// Breaker settings for read calls (search, cart lookup).
	BreakerMaxRequests     uint32
	BreakerIntervalSeconds int
	BreakerTimeoutSeconds  int
}

// StoreConfig mirrors store-wide settings that change how lines are priced
// and validated.
type StoreConfig struct {
	// TaxInclusive displays prices with tax folded in.
	TaxInclusive bool

	// AllowUnavailable lets out-of-stock and purchasing-disabled variants
	// through validation (backorder workflows).
	AllowUnavailable bool

	CurrencyCode string

	// PriceScale is the number of decimal places prices are rounded to.
	PriceScale int32
}

// FeatureConfig holds feature flags.
type FeatureConfig struct {
	// BackendValidation delegates line validation to the commerce backend
	// instead of the local quantity and stock rules.
	BackendValidation bool
}

type UploadConfig struct {
	CSVMaxRows int
	MaxBytes   int64
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvUint16("PORT", 3000),
		BaseURL:  getEnv("BASE_URL", "http://localhost:3000"),
		HTTP: HTTPConfig{
			RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
			RateLimitRPS:          getEnvFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", 20),
			AllowedOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", nil),
		},
		Commerce: CommerceConfig{
			GraphQLURL:             getEnv("COMMERCE_GRAPHQL_URL", ""),
			APIToken:               getEnv("COMMERCE_API_TOKEN", ""),
			ChannelID:              getEnv("COMMERCE_CHANNEL_ID", "1"),
			TimeoutSeconds:         getEnvInt("COMMERCE_TIMEOUT_SECONDS", 10),
			BreakerMaxRequests:     uint32(getEnvInt("COMMERCE_BREAKER_MAX_REQUESTS", 3)),
			BreakerIntervalSeconds: getEnvInt("COMMERCE_BREAKER_INTERVAL_SECONDS", 15),
			BreakerTimeoutSeconds:  getEnvInt("COMMERCE_BREAKER_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			TaxInclusive:     getEnvBool("STORE_TAX_INCLUSIVE", false),
			AllowUnavailable: getEnvBool("STORE_ALLOW_UNAVAILABLE", false),
			CurrencyCode:     getEnv("STORE_CURRENCY_CODE", "USD"),
			PriceScale:       int32(getEnvInt("STORE_PRICE_SCALE", 2)),
		},
		Features: FeatureConfig{
			BackendValidation: getEnvBool("BACKEND_VALIDATION_ENABLED", false),
		},
		Upload: UploadConfig{
			CSVMaxRows: getEnvInt("CSV_MAX_ROWS", 500),
			MaxBytes:   int64(getEnvInt("UPLOAD_MAX_BYTES", 2<<20)),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Env == "prod" && cfg.Commerce.GraphQLURL == "" {
		return fmt.Errorf("COMMERCE_GRAPHQL_URL must be set in production environment")
	}
	if cfg.Commerce.GraphQLURL == "" {
		cfg.Commerce.GraphQLURL = "http://localhost:4000/graphql"
	}

	if cfg.Commerce.TimeoutSeconds <= 0 {
		cfg.Commerce.TimeoutSeconds = 10
	}
	if cfg.HTTP.RequestTimeoutSeconds <= 0 {
		cfg.HTTP.RequestTimeoutSeconds = 30
	}
	if cfg.HTTP.RateLimitRPS <= 0 || cfg.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.Store.PriceScale < 0 {
		cfg.Store.PriceScale = 2
	}
	if cfg.Upload.CSVMaxRows <= 0 {
		return fmt.Errorf("CSV_MAX_ROWS must be positive, got %d", cfg.Upload.CSVMaxRows)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint16(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
