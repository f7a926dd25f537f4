package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoreboardMetrics records what the cycle pipeline does.
type ScoreboardMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)

	RecordSubmissionsFetched(ctx context.Context, source string, count int)
	RecordSubmissionsFolded(ctx context.Context, count int)
	RecordSubmissionDropped(ctx context.Context, reason string)
	RecordUnknownVerdict(ctx context.Context, source, token string)
	RecordHighWaterMark(ctx context.Context, id int64)

	RecordSinkPublished(ctx context.Context, sink string)
	RecordSinkFailure(ctx context.Context, sink string)
}

type prometheusMetrics struct {
	operationAttempts  *prometheus.CounterVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	fetched            *prometheus.CounterVec
	folded             prometheus.Counter
	dropped            *prometheus.CounterVec
	unknownVerdicts    *prometheus.CounterVec
	highWaterMark      prometheus.Gauge
	sinkPublished      *prometheus.CounterVec
	sinkFailures       *prometheus.CounterVec
}

// NewPrometheusMetrics registers the scoreboard collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) ScoreboardMetrics {
	m := &prometheusMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_attempts_total",
			Help: "Service operations started.",
		}, []string{"operation"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_successes_total",
			Help: "Service operations that completed without error.",
		}, []string{"operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_failures_total",
			Help: "Service operations that returned an error or panicked.",
		}, []string{"operation"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "submissions_fetched_total",
			Help: "Raw submissions returned by the source.",
		}, []string{"source"}),
		folded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "submissions_folded_total",
			Help: "Submissions folded into the board.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "submissions_dropped_total",
			Help: "Submissions ledgered but not scored.",
		}, []string{"reason"}),
		unknownVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "unknown_verdicts_total",
			Help: "Status tokens the normalizer could not map.",
		}, []string{"source", "token"}),
		highWaterMark: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "high_water_mark",
			Help: "Greatest submission id folded into the board.",
		}),
		sinkPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sink_published_total",
			Help: "Snapshots written per sink.",
		}, []string{"sink"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sink_failures_total",
			Help: "Snapshot writes that failed per sink.",
		}, []string{"sink"}),
	}

	reg.MustRegister(
		m.operationAttempts, m.operationSuccesses, m.operationFailures, m.operationDuration,
		m.fetched, m.folded, m.dropped, m.unknownVerdicts, m.highWaterMark,
		m.sinkPublished, m.sinkFailures,
	)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation string) {
	m.operationAttempts.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation string) {
	m.operationSuccesses.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.operationFailures.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordSubmissionsFetched(_ context.Context, source string, count int) {
	m.fetched.WithLabelValues(source).Add(float64(count))
}

func (m *prometheusMetrics) RecordSubmissionsFolded(_ context.Context, count int) {
	m.folded.Add(float64(count))
}

func (m *prometheusMetrics) RecordSubmissionDropped(_ context.Context, reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordUnknownVerdict(_ context.Context, source, token string) {
	m.unknownVerdicts.WithLabelValues(source, token).Inc()
}

func (m *prometheusMetrics) RecordHighWaterMark(_ context.Context, id int64) {
	m.highWaterMark.Set(float64(id))
}

func (m *prometheusMetrics) RecordSinkPublished(_ context.Context, sink string) {
	m.sinkPublished.WithLabelValues(sink).Inc()
}

func (m *prometheusMetrics) RecordSinkFailure(_ context.Context, sink string) {
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// NoOpMetrics discards everything. Used by tests and one-shot commands.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string) {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string) {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string) {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordSubmissionsFetched(context.Context, string, int) {}
func (NoOpMetrics) RecordSubmissionsFolded(context.Context, int) {}
func (NoOpMetrics) RecordSubmissionDropped(context.Context, string) {}
func (NoOpMetrics) RecordUnknownVerdict(context.Context, string, string) {}
func (NoOpMetrics) RecordHighWaterMark(context.Context, int64) {}
func (NoOpMetrics) RecordSinkPublished(context.Context, string) {}
func (NoOpMetrics) RecordSinkFailure(context.Context, string) {}

var _ ScoreboardMetrics = NoOpMetrics{}
