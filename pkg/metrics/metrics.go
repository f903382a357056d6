package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Verdicts handed out, by where they came from.
	ClassificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_total",
			Help: "Total number of urgency verdicts",
		},
		[]string{"source", "urgent"}, // source: model, fallback, cache
	)

	ClassificationFailureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_failure_total",
			Help: "Model calls that fell back to keyword matching",
		},
		[]string{"kind"},
	)

	// Model call latency in milliseconds
	ModelCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_call_latency_ms",
			Help:    "Language model call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50ms to ~25s
		},
		[]string{"backend", "status"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "classifier_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"backend"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "path", "status"},
	)

	AidRequestSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aid_request_submitted_total",
			Help: "Total number of aid requests submitted",
		},
		[]string{"urgent"},
	)

	UrgentAlertTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "urgent_alert_total",
			Help: "Urgent request alerts raised by the worker",
		},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	OutboxDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_dispatched_total",
			Help: "Outbox events handled by the dispatcher",
		},
		[]string{"status"}, // status: sent, failed
	)

	DBSlowQueryTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Queries slower than the configured threshold",
		},
	)

	DBSlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)
)

// RecordClassification counts one verdict.
func RecordClassification(source string, urgent bool) {
	ClassificationTotal.WithLabelValues(source, strconv.FormatBool(urgent)).Inc()
}

// RecordClassificationFailure counts one fallback by failure kind.
func RecordClassificationFailure(kind string) {
	ClassificationFailureTotal.WithLabelValues(kind).Inc()
}

// RecordModelCallLatency observes one model round trip.
func RecordModelCallLatency(backend, status string, duration time.Duration) {
	ModelCallLatency.WithLabelValues(backend, status).Observe(float64(duration.Milliseconds()))
}

func SetBreakerState(backend string, state int) {
	BreakerState.WithLabelValues(backend).Set(float64(state))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementAidRequestSubmitted(urgent bool) {
	AidRequestSubmitted.WithLabelValues(strconv.FormatBool(urgent)).Inc()
}

func IncrementUrgentAlert() {
	UrgentAlertTotal.Inc()
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func IncrementOutboxDispatched(status string) {
	OutboxDispatched.WithLabelValues(status).Inc()
}

// IncrementSlowQuery records a query over the slow threshold. The SQL text is
// not used as a label to keep cardinality bounded.
func IncrementSlowQuery(duration time.Duration) {
	DBSlowQueryTotal.Inc()
	DBSlowQueryDuration.Observe(duration.Seconds())
}
