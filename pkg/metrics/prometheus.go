// Package metrics provides Prometheus metrics for the tablematch service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tablematch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core business metrics - formation and distribution outcomes
	matchRuns           *prometheus.CounterVec
	strictFallbacks     prometheus.Counter
	groupsFormed        prometheus.Counter
	groupSize           prometheus.Histogram
	compatibilityScore  prometheus.Histogram
	formationLatency    prometheus.Histogram
	tablesCreated       prometheus.Counter
	seatsAssigned       prometheus.Counter
	capacityShortfalls  prometheus.Counter
	skippedParticipants prometheus.Counter
	clearOperations     prometheus.Counter
	distributionLatency prometheus.Histogram

	// Operational health metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	workerCount      prometheus.Gauge
	activeRuns       prometheus.Gauge

	// Queue metrics - match request queue performance
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics - run processing performance
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tablematch",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all collectors against the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	factory := promauto.With(m.registry)

	m.matchRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_runs_total",
		Help:      "Matching runs by outcome (strict, lenient, single_group, too_few_participants, error).",
	}, []string{"outcome"})

	m.strictFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "strict_fallbacks_total",
		Help:      "Runs where the strict pass aborted and the lenient fallback ran.",
	})

	m.groupsFormed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "groups_formed_total",
		Help:      "Dinner groups produced by formation runs.",
	})

	m.groupSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_size",
		Help:      "Size of formed groups.",
		Buckets:   []float64{4, 5, 6, 7, 8, 9},
	})

	m.compatibilityScore = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_compatibility_score",
		Help:      "Aggregate pairwise compatibility score of formed groups.",
		Buckets:   prometheus.LinearBuckets(-100, 50, 10),
	})

	m.formationLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "formation_latency_ms",
		Help:      "Group formation latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.tablesCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tables_created_total",
		Help:      "Tables created by venue distribution.",
	})

	m.seatsAssigned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seats_assigned_total",
		Help:      "Seat assignments written by venue distribution.",
	})

	m.capacityShortfalls = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capacity_shortfalls_total",
		Help:      "Distribution requests rejected for insufficient venue capacity.",
	})

	m.skippedParticipants = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skipped_participants_total",
		Help:      "Seat writes skipped because the participant vanished before write time.",
	})

	m.clearOperations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clear_operations_total",
		Help:      "Event assignment wipes performed.",
	})

	m.distributionLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "distribution_latency_ms",
		Help:      "Venue distribution latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Match requests currently queued.",
	})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured match request queue capacity.",
	})

	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue fill ratio between 0 and 1.",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured number of match run workers.",
	})

	m.activeRuns = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_runs",
		Help:      "Events with a matching run currently in flight.",
	})

	m.queueEnqueueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Match requests accepted by the queue.",
	})

	m.queueDequeueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Match requests handed to workers.",
	})

	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Enqueue attempts rejected (full, closed, cancelled).",
	})

	m.queueProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_processing_latency_ms",
		Help:      "Enqueue call latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.workerActiveCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Workers currently processing a run.",
	})

	m.workerIdleCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Workers currently idle.",
	})

	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_ms",
		Help:      "End-to-end run processing latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrorRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Run processing failures.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method, and status code.",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type.",
	}, []string{"component", "error_type"})

	m.errorRateByType = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity.",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method, and type.",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_ms",
		Help:      "Latency of failed operations in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Allocated heap bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Live goroutine count.",
	})

	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_ms",
		Help:      "Average GC pause time in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
}

// RecordMatchRun counts a finished run by outcome.
func RecordMatchRun(outcome string) {
	globalManager.matchRuns.WithLabelValues(outcome).Inc()
}

// RecordStrictFallback counts a strict pass abort.
func RecordStrictFallback() {
	globalManager.strictFallbacks.Inc()
}

// RecordGroupsFormed counts n formed groups.
func RecordGroupsFormed(n int) {
	globalManager.groupsFormed.Add(float64(n))
}

// ObserveGroupSize records the size of one formed group.
func ObserveGroupSize(size int) {
	globalManager.groupSize.Observe(float64(size))
}

// ObserveCompatibilityScore records one group's compatibility score.
func ObserveCompatibilityScore(score int) {
	globalManager.compatibilityScore.Observe(float64(score))
}

// ObserveFormationLatency records one formation run's latency.
func ObserveFormationLatency(latencyMs float64) {
	globalManager.formationLatency.Observe(latencyMs)
}

// RecordTablesCreated counts n created tables.
func RecordTablesCreated(n int) {
	globalManager.tablesCreated.Add(float64(n))
}

// RecordSeatsAssigned counts n written seat assignments.
func RecordSeatsAssigned(n int) {
	globalManager.seatsAssigned.Add(float64(n))
}

// RecordCapacityShortfall counts a rejected distribution request.
func RecordCapacityShortfall() {
	globalManager.capacityShortfalls.Inc()
}

// RecordSkippedParticipant counts one skip-and-log assignment write.
func RecordSkippedParticipant() {
	globalManager.skippedParticipants.Inc()
}

// RecordClearOperation counts an event wipe.
func RecordClearOperation() {
	globalManager.clearOperations.Inc()
}

// ObserveDistributionLatency records one distribution run's latency.
func ObserveDistributionLatency(latencyMs float64) {
	globalManager.distributionLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateActiveRuns sets the number of in-flight runs.
func UpdateActiveRuns(count int64) {
	globalManager.activeRuns.Set(float64(count))
}

// RecordQueueEnqueue counts an accepted enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records one enqueue call's latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records one run's processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed run.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the live goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
