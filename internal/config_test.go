package internal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, "http://localhost:4000/graphql", cfg.Commerce.GraphQLURL)
	assert.Equal(t, 10, cfg.Commerce.TimeoutSeconds)
	assert.Equal(t, "USD", cfg.Store.CurrencyCode)
	assert.Equal(t, int32(2), cfg.Store.PriceScale)
	assert.False(t, cfg.Store.TaxInclusive)
	assert.False(t, cfg.Features.BackendValidation)
	assert.Equal(t, 500, cfg.Upload.CSVMaxRows)
	assert.Equal(t, 30, cfg.HTTP.RequestTimeoutSeconds)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
}

func TestNewConfig_AllowedOrigins(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, ,https://b2b.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example.com", "https://b2b.example.com"}, cfg.HTTP.AllowedOrigins)
}

func TestNewConfig_RateLimitMustBePositive(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("RATE_LIMIT_BURST", "0")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewConfig_StoreFlags(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("STORE_TAX_INCLUSIVE", "true")
	t.Setenv("STORE_ALLOW_UNAVAILABLE", "1")
	t.Setenv("BACKEND_VALIDATION_ENABLED", "yes")
	t.Setenv("CSV_MAX_ROWS", "25")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Store.TaxInclusive)
	assert.True(t, cfg.Store.AllowUnavailable)
	assert.True(t, cfg.Features.BackendValidation)
	assert.Equal(t, 25, cfg.Upload.CSVMaxRows)
}

func TestNewConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("COMMERCE_GRAPHQL_URL", "https://store.example.com/graphql")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig_ProdRequiresGraphQLURL(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("COMMERCE_GRAPHQL_URL", "")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewLogger_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "debug")

	logger.Debug("reconcile pass", "lines", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reconcile pass", entry["msg"])
	assert.Equal(t, "quickorder", entry["service"])
	assert.EqualValues(t, 3, entry["lines"])
}

func TestNewLogger_InfoSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "dev", "info")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
