// Package metrics provides Prometheus metrics for the talentscope service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating pipeline
	playersScored      prometheus.Counter
	scoringLatency     prometheus.Histogram
	predictorFallbacks *prometheus.CounterVec
	confidenceTiers    *prometheus.CounterVec
	potentialScores    prometheus.Histogram

	// Progression engine
	progressionRuns     prometheus.Counter
	progressionRows     prometheus.Gauge
	progressionRepairs  *prometheus.CounterVec
	progressionDuration prometheus.Histogram

	// Leaderboard
	leaderboardPlayers prometheus.Gauge
	leaderboardUpdates prometheus.Counter

	// Repository
	repositoryRows          prometheus.Gauge
	repositoryQueryLatency  prometheus.Histogram
	repositoryUpdateLatency prometheus.Histogram
	importedRows            prometheus.Counter
	importSkipped           prometheus.Counter

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	jobsDuplicate           prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentscope",
		subsystem:        "ratings",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.playersScored = m.counter("players_scored_total", "Total number of player seasons scored")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"Latency of a single potential computation in milliseconds", m.histogramBuckets)
	m.predictorFallbacks = m.counterVec("predictor_fallback_total",
		"Development predictions served by the heuristic fallback, by reason", "reason")
	m.confidenceTiers = m.counterVec("confidence_tier_total",
		"Scored seasons by sample-size confidence label", "label")
	m.potentialScores = m.histogram("predicted_potential",
		"Distribution of predicted potential scores",
		[]float64{30, 40, 50, 60, 65, 70, 75, 80, 85, 90, 95, 100})

	m.progressionRuns = m.counter("progression_runs_total", "Total number of progression batch runs")
	m.progressionRows = m.gauge("progression_rows", "Rows produced by the last progression run")
	m.progressionRepairs = m.counterVec("progression_repairs_total",
		"Values adjusted by the monotonicity repair pass, by field", "field")
	m.progressionDuration = m.histogram("progression_duration_milliseconds",
		"Duration of a progression batch run in milliseconds", m.histogramBuckets)

	m.leaderboardPlayers = m.gauge("leaderboard_players", "Players currently ranked on the leaderboard")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Total number of leaderboard updates")

	m.repositoryRows = m.gauge("repository_rows", "Player-season rows held by the store")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Repository query latency in milliseconds", m.histogramBuckets)
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Repository write latency in milliseconds", m.histogramBuckets)
	m.importedRows = m.counter("import_rows_total", "Rows accepted by the CSV importer")
	m.importSkipped = m.counter("import_rows_skipped_total", "Rows rejected by the CSV importer")

	m.queueSize = m.gauge("queue_size", "Pending recalculation jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending recalculation jobs")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected because the queue was full or closed")
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Recalculation requests dropped because one was already pending")
	m.workerCount = m.gauge("worker_count", "Running recalculation workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time a worker spends on a single job in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed inside a worker")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordPlayerScored counts one scored season and its confidence label.
func RecordPlayerScored(confidenceLabel string, potential float64) {
	globalManager.playersScored.Inc()
	globalManager.confidenceTiers.WithLabelValues(confidenceLabel).Inc()
	globalManager.potentialScores.Observe(potential)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordPredictorFallback counts a development prediction served by the heuristic.
func RecordPredictorFallback(reason string) {
	globalManager.predictorFallbacks.WithLabelValues(reason).Inc()
}

// RecordProgressionRun records a finished progression batch.
func RecordProgressionRun(rows int, durationMs float64) {
	globalManager.progressionRuns.Inc()
	globalManager.progressionRows.Set(float64(rows))
	globalManager.progressionDuration.Observe(durationMs)
}

// RecordProgressionRepair counts one value moved by the repair pass.
func RecordProgressionRepair(field string) {
	globalManager.progressionRepairs.WithLabelValues(field).Inc()
}

// UpdateLeaderboardPlayers sets the number of ranked players.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// UpdateRepositoryRows sets the number of stored player seasons.
func UpdateRepositoryRows(count int) {
	globalManager.repositoryRows.Set(float64(count))
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordImport records the outcome of a CSV import.
func RecordImport(accepted, skipped int) {
	globalManager.importedRows.Add(float64(accepted))
	globalManager.importSkipped.Add(float64(skipped))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordJobDuplicate counts a recalculation request dropped as already pending.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
