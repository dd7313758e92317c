package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRecordsLedgerMetrics(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.RecordSignup("Accepted")
	m.RecordSignup("Accepted")
	m.RecordSignup("CapacityExceeded")
	m.RecordPromotion("promoted")
	m.RecordReconcile(-2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.signups.WithLabelValues("Accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signups.WithLabelValues("CapacityExceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotions.WithLabelValues("promoted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconcileDrift.WithLabelValues("male")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileDrift.WithLabelValues("female")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewManager()
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 3*time.Millisecond)
	m.ObserveScoring(time.Millisecond, 4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "circuit_http_requests_total")
	assert.Contains(t, body, "circuit_matching_ranked_candidates")
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
