package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitSentry_Disabled(t *testing.T) {
	cleanup, err := InitSentry(SentryConfig{Enabled: false}, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	cleanup()

	assert.False(t, IsEnabled())
	assert.NotPanics(t, func() { CaptureError(errors.New("ignored")) })
}

func TestInitSentry_MissingDSNDisables(t *testing.T) {
	_, err := InitSentry(SentryConfig{Enabled: true}, discardLogger())
	require.NoError(t, err)
	assert.False(t, IsEnabled())
}

func TestMiddleware_PassThroughWhenDisabled(t *testing.T) {
	_, err := InitSentry(SentryConfig{}, discardLogger())
	require.NoError(t, err)

	called := false
	handler := SentryContextMiddleware(nil)(SentryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPTransport_DefaultsBaseTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
