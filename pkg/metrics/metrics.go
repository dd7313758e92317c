// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric the service records.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	signups          *prometheus.CounterVec
	signouts         *prometheus.CounterVec
	waitlistJoins    *prometheus.CounterVec
	promotions       *prometheus.CounterVec
	txRetries        *prometheus.CounterVec
	reconcileRuns    prometheus.Counter
	reconcileDrift   *prometheus.CounterVec
	scoringDuration  prometheus.Histogram
	rankedCandidates prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide manager registered on its own registry,
// so Go runtime collectors are not exported unless added explicitly.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// NewManager builds a manager on a fresh registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "circuit",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.signups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ledger", Name: "signups_total",
		Help: "Signup attempts by result code.",
	}, []string{"code"})
	m.signouts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ledger", Name: "signouts_total",
		Help: "Signout attempts by result code.",
	}, []string{"code"})
	m.waitlistJoins = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ledger", Name: "waitlist_joins_total",
		Help: "Waitlist join attempts by result code.",
	}, []string{"code"})
	m.promotions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "promotion", Name: "outcomes_total",
		Help: "Waitlist promotion runs by terminal state.",
	}, []string{"state"})
	m.txRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "store", Name: "tx_retries_total",
		Help: "Transactions retried after contention, by operation.",
	}, []string{"operation"})
	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ledger", Name: "reconcile_runs_total",
		Help: "Reconciliation passes executed.",
	})
	m.reconcileDrift = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ledger", Name: "reconcile_drift_total",
		Help: "Absolute counter drift healed by reconciliation, by gender.",
	}, []string{"gender"})
	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "matching", Name: "scoring_duration_seconds",
		Help: "Time spent scoring one candidate pool.", Buckets: m.buckets,
	})
	m.rankedCandidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "matching", Name: "ranked_candidates",
		Help:    "Candidates left after prefiltering, per ranking.",
		Buckets: prometheus.LinearBuckets(0, 10, 10),
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "request_duration_seconds",
		Help: "HTTP request latency by method and route.", Buckets: m.buckets,
	}, []string{"method", "route"})
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordSignup(code string)       { m.signups.WithLabelValues(code).Inc() }
func (m *Manager) RecordSignout(code string)      { m.signouts.WithLabelValues(code).Inc() }
func (m *Manager) RecordWaitlistJoin(code string) { m.waitlistJoins.WithLabelValues(code).Inc() }
func (m *Manager) RecordPromotion(state string)   { m.promotions.WithLabelValues(state).Inc() }
func (m *Manager) RecordTxRetry(operation string) { m.txRetries.WithLabelValues(operation).Inc() }

// RecordReconcile counts one reconciliation pass and the drift it healed.
func (m *Manager) RecordReconcile(menDrift, womenDrift int) {
	m.reconcileRuns.Inc()
	if menDrift != 0 {
		m.reconcileDrift.WithLabelValues("male").Add(float64(abs(menDrift)))
	}
	if womenDrift != 0 {
		m.reconcileDrift.WithLabelValues("female").Add(float64(abs(womenDrift)))
	}
}

// ObserveScoring records one ranking run.
func (m *Manager) ObserveScoring(d time.Duration, candidates int) {
	m.scoringDuration.Observe(d.Seconds())
	m.rankedCandidates.Observe(float64(candidates))
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
