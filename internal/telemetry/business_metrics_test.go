package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBusinessMetrics_Record(t *testing.T) {
	m := NewBusinessMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordPass("csv", "ok", 12, 150*time.Millisecond)
	m.RecordPass("csv", "ok", 3, 10*time.Millisecond)
	m.RecordLineOutcome("csv", "not_found")
	m.RecordUpload("parsed", 2)
	m.RecordSubmission("create", "success")
	m.RecordSubmissionFailure("out_of_stock")
	m.ObserveCommerceCall("search_products", errors.New("boom"), time.Second)
	m.SetBreakerState("commerce-reads", 1)
	m.RecordBreakerFailure("commerce-reads")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcilePasses.WithLabelValues("csv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LineOutcomes.WithLabelValues("csv", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CSVUploads.WithLabelValues("parsed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CSVRowErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartSubmissions.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionFailures.WithLabelValues("out_of_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("commerce-reads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerFailures.WithLabelValues("commerce-reads")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CommerceAPILatency))
}

func TestBusinessMetrics_NilIsSafe(t *testing.T) {
	var m *BusinessMetrics

	assert.NotPanics(t, func() {
		m.RecordPass("manual", "ok", 1, time.Millisecond)
		m.RecordLineOutcome("manual", "valid")
		m.RecordUpload("rejected", 0)
		m.RecordSubmission("append", "rejected")
		m.RecordSubmissionFailure("generic")
		m.ObserveCommerceCall("get_cart", nil, time.Millisecond)
		m.SetBreakerState("commerce-reads", 0)
		m.RecordBreakerFailure("commerce-reads")
	})
}
