package telemetry

import "time"

// The Record helpers are nil-safe so callers can run without metrics in tests.

// RecordPass records one finished reconciliation pass.
func (m *BusinessMetrics) RecordPass(source, outcome string, lines int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReconcilePasses.WithLabelValues(source, outcome).Inc()
	m.ReconcileDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if lines > 0 {
		m.ReconcileLines.WithLabelValues(source).Observe(float64(lines))
	}
}

// RecordLineOutcome counts one per-line verdict.
func (m *BusinessMetrics) RecordLineOutcome(source, reason string) {
	if m == nil {
		return
	}
	m.LineOutcomes.WithLabelValues(source, reason).Inc()
}

// RecordUpload counts a CSV upload and its rejected rows.
func (m *BusinessMetrics) RecordUpload(status string, rowErrors int) {
	if m == nil {
		return
	}
	m.CSVUploads.WithLabelValues(status).Inc()
	if rowErrors > 0 {
		m.CSVRowErrors.Add(float64(rowErrors))
	}
}

// RecordSubmission counts one cart mutation.
func (m *BusinessMetrics) RecordSubmission(mode, outcome string) {
	if m == nil {
		return
	}
	m.CartSubmissions.WithLabelValues(mode, outcome).Inc()
}

// RecordSubmissionFailure counts one classified cart error.
func (m *BusinessMetrics) RecordSubmissionFailure(reason string) {
	if m == nil {
		return
	}
	m.SubmissionFailures.WithLabelValues(reason).Inc()
}

// ObserveCommerceCall records the latency of one GraphQL round-trip.
func (m *BusinessMetrics) ObserveCommerceCall(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CommerceAPILatency.WithLabelValues(operation, status).Observe(elapsed.Seconds())
}

// SetBreakerState records a circuit breaker transition (0=closed, 1=open, 2=half-open).
func (m *BusinessMetrics) SetBreakerState(circuit string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(circuit).Set(float64(state))
}

// RecordBreakerFailure counts a call that failed inside or was rejected by a breaker.
func (m *BusinessMetrics) RecordBreakerFailure(circuit string) {
	if m == nil {
		return
	}
	m.CircuitBreakerFailures.WithLabelValues(circuit).Inc()
}
