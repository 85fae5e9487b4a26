package routes

import (
	"net/http"
	"time"

	"github.com/dukerupert/quickorder/internal/handler/api"
)

// APIDeps contains dependencies for the quick-order API routes
type APIDeps struct {
	QuickOrderHandler *api.QuickOrderHandler

	// RateLimit guards the endpoints that call the commerce platform.
	RateLimit func(http.Handler) http.Handler

	// Limits
	MaxBodyBytes   int64
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// OpsDeps contains dependencies for health and metrics routes
type OpsDeps struct {
	HealthHandler  *api.HealthHandler
	MetricsHandler http.Handler
}
