// Package metrics provides Prometheus metrics for the diabetes risk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Inference
	predictions       *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	predictionLatency prometheus.Histogram

	// Training
	trainingRuns     *prometheus.CounterVec
	trainingRMSE     prometheus.Gauge
	trainingDuration prometheus.Histogram
	trainingRows     *prometheus.GaugeVec

	// Artifacts
	artifactLoads *prometheus.CounterVec
	artifactSaves *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Batch queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Batch workers
	workerActiveCount       prometheus.Gauge
	workerRowsProcessed     prometheus.Counter
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "diabrisk",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of successful predictions by risk band"),
		[]string{"band"},
	)
	m.predictionErrors = auto.NewCounterVec(
		m.counterOpts("prediction_errors_total", "Total number of rejected predictions by error kind"),
		[]string{"kind"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "Encode, scale and predict latency in milliseconds", m.histogramBuckets),
	)

	m.trainingRuns = auto.NewCounterVec(
		m.counterOpts("training_runs_total", "Total number of training runs by outcome"),
		[]string{"status"},
	)
	m.trainingRMSE = auto.NewGauge(
		m.gaugeOpts("training_last_rmse", "RMSE of the most recent training run on its held-out split"),
	)
	m.trainingDuration = auto.NewHistogram(
		m.histogramOpts("training_duration_seconds", "Wall time of completed training runs in seconds",
			prometheus.ExponentialBuckets(0.01, 4, 10)),
	)
	m.trainingRows = auto.NewGaugeVec(
		m.gaugeOpts("training_rows", "Row counts of the most recent training run by stage"),
		[]string{"stage"},
	)

	m.artifactLoads = auto.NewCounterVec(
		m.counterOpts("artifact_loads_total", "Total number of artifact pair loads by outcome"),
		[]string{"status"},
	)
	m.artifactSaves = auto.NewCounterVec(
		m.counterOpts("artifact_saves_total", "Total number of artifact pair saves by outcome"),
		[]string{"status"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued score jobs"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued score jobs"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Total number of score jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Total number of score jobs handed to workers"))
	m.queueEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues by reason"),
		[]string{"reason"},
	)

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running batch workers"))
	m.workerRowsProcessed = auto.NewCounter(m.counterOpts("worker_rows_processed_total", "Total number of rows scored by workers"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of rows workers failed to score"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Per-row worker latency in milliseconds", m.histogramBuckets),
	)
}

// Inference Metrics Functions.

// RecordPrediction increments the prediction counter for band.
func RecordPrediction(band string) {
	globalManager.predictions.WithLabelValues(band).Inc()
}

// RecordPredictionError increments the rejected prediction counter for kind.
func RecordPredictionError(kind string) {
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordPredictionLatency records end-to-end prediction latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// Training Metrics Functions.

// RecordTrainingRun increments the training run counter for status.
func RecordTrainingRun(status string) {
	globalManager.trainingRuns.WithLabelValues(status).Inc()
}

// UpdateTrainingRMSE sets the last held-out RMSE.
func UpdateTrainingRMSE(rmse float64) {
	globalManager.trainingRMSE.Set(rmse)
}

// RecordTrainingDuration records the wall time of a completed run.
func RecordTrainingDuration(seconds float64) {
	globalManager.trainingDuration.Observe(seconds)
}

// UpdateTrainingRows sets the row count observed at stage.
func UpdateTrainingRows(stage string, rows int) {
	globalManager.trainingRows.WithLabelValues(stage).Set(float64(rows))
}

// Artifact Metrics Functions.

// RecordArtifactLoad increments the artifact load counter for status.
func RecordArtifactLoad(status string) {
	globalManager.artifactLoads.WithLabelValues(status).Inc()
}

// RecordArtifactSave increments the artifact save counter for status.
func RecordArtifactSave(status string) {
	globalManager.artifactSaves.WithLabelValues(status).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter for reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerRowProcessed increments the processed row counter.
func RecordWorkerRowProcessed() {
	globalManager.workerRowsProcessed.Inc()
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
