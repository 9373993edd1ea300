// Package metrics provides Prometheus metrics for the raidlake pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest metrics - the bronze front door
	batchesAccepted  prometheus.Counter
	batchesRejected  prometheus.Counter
	eventsValidated  prometheus.Counter
	validationErrors prometheus.Counter

	// Silver metrics - cleaning and typing
	silverBatches     prometheus.Counter
	duplicatesRemoved prometheus.Counter
	rowsRangeDropped  prometheus.Counter
	silverRowsWritten prometheus.Counter

	// Gold metrics - aggregation and publication
	partitionsProcessed prometheus.Counter
	partitionsFailed    prometheus.Counter
	goldRowsWritten     *prometheus.CounterVec

	// Storage metrics
	objectReadFailures  prometheus.Counter
	objectWriteFailures prometheus.Counter

	// Stage latency
	stageDuration *prometheus.HistogramVec

	// Queue / worker health
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "raidlake",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.batchesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_accepted_total",
		Help:      "Total number of event batches accepted into bronze",
	})

	m.batchesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_rejected_total",
		Help:      "Total number of event batches rejected at the ingest gate",
	})

	m.eventsValidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_validated_total",
		Help:      "Total number of events that passed schema validation",
	})

	m.validationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_errors_total",
		Help:      "Total number of events that failed schema validation",
	})

	m.silverBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "silver_batches_total",
		Help:      "Total number of bronze batches transformed to silver",
	})

	m.duplicatesRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "silver_duplicates_removed_total",
		Help:      "Total number of duplicate events dropped by the silver stage",
	})

	m.rowsRangeDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "silver_rows_range_dropped_total",
		Help:      "Total number of rows dropped by silver range validation",
	})

	m.silverRowsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "silver_rows_written_total",
		Help:      "Total number of cleaned rows written to silver",
	})

	m.partitionsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gold_partitions_processed_total",
		Help:      "Total number of partitions published to gold",
	})

	m.partitionsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gold_partitions_failed_total",
		Help:      "Total number of partition runs that failed",
	})

	m.goldRowsWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "gold_rows_written_total",
			Help:      "Total number of rows written to gold, by table",
		},
		[]string{"table"},
	)

	m.objectReadFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "object_read_failures_total",
		Help:      "Total number of object reads that failed",
	})

	m.objectWriteFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "object_write_failures_total",
		Help:      "Total number of object writes that failed",
	})

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_duration_milliseconds",
			Help:      "Duration of pipeline stages in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"stage"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the silver transform queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of silver transform workers",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordBatchAccepted increments the accepted batches counter.
func RecordBatchAccepted() {
	globalManager.batchesAccepted.Inc()
}

// RecordBatchRejected increments the rejected batches counter.
func RecordBatchRejected() {
	globalManager.batchesRejected.Inc()
}

// RecordEventsValidated adds n to the validated events counter.
func RecordEventsValidated(n int) {
	globalManager.eventsValidated.Add(float64(n))
}

// RecordValidationErrors adds n to the validation errors counter.
func RecordValidationErrors(n int) {
	globalManager.validationErrors.Add(float64(n))
}

// RecordSilverBatch increments the transformed bronze batches counter.
func RecordSilverBatch() {
	globalManager.silverBatches.Inc()
}

// RecordDuplicatesRemoved adds n to the silver duplicates counter.
func RecordDuplicatesRemoved(n int) {
	globalManager.duplicatesRemoved.Add(float64(n))
}

// RecordRowsRangeDropped adds n to the range-dropped rows counter.
func RecordRowsRangeDropped(n int) {
	globalManager.rowsRangeDropped.Add(float64(n))
}

// RecordSilverRowsWritten adds n to the silver rows counter.
func RecordSilverRowsWritten(n int) {
	globalManager.silverRowsWritten.Add(float64(n))
}

// RecordPartitionProcessed increments the processed partitions counter.
func RecordPartitionProcessed() {
	globalManager.partitionsProcessed.Inc()
}

// RecordPartitionFailed increments the failed partitions counter.
func RecordPartitionFailed() {
	globalManager.partitionsFailed.Inc()
}

// RecordGoldRowsWritten adds n to the per-table gold rows counter.
func RecordGoldRowsWritten(table string, n int) {
	globalManager.goldRowsWritten.WithLabelValues(table).Add(float64(n))
}

// RecordObjectReadFailure increments the object read failures counter.
func RecordObjectReadFailure() {
	globalManager.objectReadFailures.Inc()
}

// RecordObjectWriteFailure increments the object write failures counter.
func RecordObjectWriteFailure() {
	globalManager.objectWriteFailures.Inc()
}

// RecordStageDuration records a stage duration in milliseconds.
func RecordStageDuration(stage string, ms float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(ms)
}

// UpdateQueueSize sets the current silver queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
