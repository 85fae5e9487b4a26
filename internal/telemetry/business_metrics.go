package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for quick-order observability.
// Labels stay low-cardinality: no SKUs, list IDs, or cart IDs.
type BusinessMetrics struct {
	// Reconciliation passes
	ReconcilePasses   *prometheus.CounterVec
	ReconcileDuration *prometheus.HistogramVec
	ReconcileLines    *prometheus.HistogramVec
	LineOutcomes      *prometheus.CounterVec

	// CSV uploads
	CSVUploads   *prometheus.CounterVec
	CSVRowErrors prometheus.Counter

	// Cart submission
	CartSubmissions    *prometheus.CounterVec
	SubmissionFailures *prometheus.CounterVec

	// Commerce collaborator
	CommerceAPILatency     *prometheus.HistogramVec
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerFailures *prometheus.CounterVec
}

// NewBusinessMetrics registers all business metrics with the default registry.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewBusinessMetricsWith registers all business metrics with reg.
func NewBusinessMetricsWith(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	factory := promauto.With(reg)
	const subsystem = "quick_order"

	return &BusinessMetrics{
		// =======================================================================
		// Reconciliation
		// =======================================================================
		ReconcilePasses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_passes_total",
				Help:      "Reconciliation passes by line source and outcome",
			},
			[]string{"source", "outcome"}, // outcome: ok, stale, invalid, unavailable, error
		),
		ReconcileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_duration_seconds",
				Help:      "Reconciliation pass duration including collaborator round-trips",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		ReconcileLines: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_lines",
				Help:      "Number of lines submitted to one reconciliation pass",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"source"},
		),
		LineOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "line_outcomes_total",
				Help:      "Per-line reconciliation verdicts",
			},
			[]string{"source", "reason"}, // reason: valid, not_found, out_of_stock, disabled, below_minimum, above_maximum, generic
		),

		// =======================================================================
		// CSV uploads
		// =======================================================================
		CSVUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "csv_uploads_total",
				Help:      "CSV uploads by parse status",
			},
			[]string{"status"}, // status: parsed, rejected
		),
		CSVRowErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "csv_row_errors_total",
				Help:      "CSV data rows that could not become lines",
			},
		),

		// =======================================================================
		// Cart submission
		// =======================================================================
		CartSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_submissions_total",
				Help:      "Cart submissions by mode and outcome",
			},
			[]string{"mode", "outcome"}, // mode: create, append; outcome: success, rejected, unavailable
		),
		SubmissionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submission_failures_total",
				Help:      "Classified cart mutation errors",
			},
			[]string{"reason"},
		),

		// =======================================================================
		// Commerce collaborator
		// =======================================================================
		CommerceAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "commerce",
				Name:      "api_duration_seconds",
				Help:      "Commerce GraphQL call duration (helps differentiate app slowness from platform issues)",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "status"}, // status: ok, error
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "commerce",
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"circuit"},
		),
		CircuitBreakerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commerce",
				Name:      "circuit_breaker_failures_total",
				Help:      "Calls that failed or were rejected by the circuit breaker",
			},
			[]string{"circuit"},
		),
	}
}

// Global instance for easy access from services
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
