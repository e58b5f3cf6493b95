package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CredentialsIssued  prometheus.Counter
	IssuanceFailures   *prometheus.CounterVec
	VerificationsTotal prometheus.Counter
	AuthenticityScore  prometheus.Histogram
	StatusListDegraded prometheus.Counter
	UsersCreated       prometheus.Counter
	CreditsExhausted   prometheus.Counter

	ExternalCallDuration *prometheus.HistogramVec
	ExternalFailures     *prometheus.CounterVec
	CircuitOpened        *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	OutboxPublished       prometheus.Counter
	OutboxPublishFailures prometheus.Counter
	OutboxPendingDepth    prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contentify_http_requests_total",
			Help: "Total HTTP requests by path and status code",
		}, []string{"path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contentify_http_request_duration_seconds",
			Help:    "HTTP request latency by path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),

		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_credentials_issued_total",
			Help: "Total credentials successfully issued",
		}),
		IssuanceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contentify_issuance_failures_total",
			Help: "Failed issuance attempts by stage",
		}, []string{"stage"}),
		VerificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_verifications_total",
			Help: "Total verification events recorded",
		}),
		AuthenticityScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentify_authenticity_score",
			Help:    "Distribution of authenticity scores at issuance",
			Buckets: []float64{50, 60, 70, 75, 80, 85, 90, 95, 100},
		}),
		StatusListDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_statuslist_degraded_total",
			Help: "Credentials issued without a status list reference",
		}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_users_created_total",
			Help: "Total users created on first issuance",
		}),
		CreditsExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_credits_exhausted_total",
			Help: "Issuances attempted by users with zero credits remaining",
		}),

		ExternalCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contentify_external_call_duration_seconds",
			Help:    "Latency of hosted identity API calls by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		ExternalFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contentify_external_failures_total",
			Help: "Failed hosted identity API calls by operation and category",
		}, []string{"operation", "category"}),
		CircuitOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contentify_circuit_opened_total",
			Help: "Circuit breaker open transitions by dependency",
		}, []string{"dependency"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_cache_hits_total",
			Help: "Credential cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_cache_misses_total",
			Help: "Credential cache misses",
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_outbox_published_total",
			Help: "Outbox entries published to the analytics topic",
		}),
		OutboxPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentify_outbox_publish_failures_total",
			Help: "Outbox entries that failed to publish",
		}),
		OutboxPendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contentify_outbox_pending_depth",
			Help: "Outbox entries awaiting publication",
		}),
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(seconds)
}

// ObserveExternalCall records the latency of one hosted API call.
func (m *Metrics) ObserveExternalCall(operation string, seconds float64) {
	m.ExternalCallDuration.WithLabelValues(operation).Observe(seconds)
}

// IncrementExternalFailure counts one failed hosted API call.
func (m *Metrics) IncrementExternalFailure(operation, category string) {
	m.ExternalFailures.WithLabelValues(operation, category).Inc()
}

// IncrementCircuitOpened counts one breaker trip for a dependency.
func (m *Metrics) IncrementCircuitOpened(dependency string) {
	m.CircuitOpened.WithLabelValues(dependency).Inc()
}

// IncrementIssuanceFailure counts one failed issuance at the given stage.
func (m *Metrics) IncrementIssuanceFailure(stage string) {
	m.IssuanceFailures.WithLabelValues(stage).Inc()
}
