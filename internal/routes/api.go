package routes

import (
	"github.com/dukerupert/quickorder/internal/middleware"
	"github.com/dukerupert/quickorder/internal/router"
)

// RegisterAPIRoutes registers the quick-order endpoints. Each one costs at
// least two platform round-trips, so all of them are rate limited and
// time-boxed.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	quickOrder := r.Group(
		deps.RateLimit,
		middleware.Timeout(deps.RequestTimeout),
	)

	quickOrder.Post("/api/quick-order/reconcile", deps.QuickOrderHandler.Reconcile,
		middleware.MaxBodySize(deps.MaxBodyBytes))
	quickOrder.Post("/api/quick-order/submit", deps.QuickOrderHandler.Submit,
		middleware.MaxBodySize(deps.MaxBodyBytes))

	// CSV uploads get their own size budget
	quickOrder.Post("/api/quick-order/upload", deps.QuickOrderHandler.Upload,
		middleware.MaxBodySize(deps.MaxUploadBytes))
}

// RegisterOpsRoutes registers health and metrics routes. They skip rate
// limiting so probes and scrapes are never throttled.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.HealthHandler.Health)
	r.Handle("GET", "/metrics", deps.MetricsHandler)
}
