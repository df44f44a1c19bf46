// Package metrics provides Prometheus metrics for the match analysis engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline
	fixturesAnalysed  prometheus.Counter
	fixturesFailed    *prometheus.CounterVec
	fixturesDegraded  prometheus.Counter
	fixtureDuration   prometheus.Histogram
	picksByTier       *prometheus.CounterVec
	trapBlocks        prometheus.Counter
	simulationLatency prometheus.Histogram

	// History store
	storeReadLatency *prometheus.HistogramVec
	storeDowngrades  *prometheus.CounterVec
	storeRetries     prometheus.Counter
	dnaCacheLookups  *prometheus.CounterVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueRejected    *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Meta-learning
	predictionsRecorded prometheus.Counter
	predictionsSettled  *prometheus.CounterVec
	layerWeight         *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchquant",
		subsystem:        "core",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.fixturesAnalysed = m.counter("fixtures_analysed_total", "Fixtures that produced picks")
	m.fixturesFailed = m.counterVec("fixtures_failed_total", "Fixtures abandoned, by reason", "reason")
	m.fixturesDegraded = m.counter("fixtures_degraded_total", "Fixtures that exceeded their wall-clock budget")
	m.fixtureDuration = m.histogram("fixture_duration_milliseconds", "End-to-end fixture analysis latency")
	m.picksByTier = m.counterVec("picks_total", "Emitted picks by recommendation tier", "recommendation")
	m.trapBlocks = m.counter("trap_blocks_total", "Markets blocked by the trap gate")
	m.simulationLatency = m.histogram("simulation_latency_milliseconds", "Monte Carlo run latency")

	m.storeReadLatency = m.histogramVec("store_read_latency_milliseconds", "History store read latency", "method")
	m.storeDowngrades = m.counterVec("store_downgrades_total", "Store reads downgraded to data absence", "method")
	m.storeRetries = m.counter("store_retries_total", "Store reads retried after a transport failure")
	m.dnaCacheLookups = m.counterVec("dna_cache_lookups_total", "Team DNA cache lookups", "tier", "result")

	m.queueSize = m.gauge("queue_size", "Fixtures waiting in the input queue")
	m.queueCapacity = m.gauge("queue_capacity", "Input queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueRejected = m.counterVec("queue_rejected_total", "Fixtures rejected by the queue", "reason")

	m.workerCount = m.gauge("worker_count", "Fixture workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-fixture worker latency")
	m.workerErrors = m.counter("worker_errors_total", "Fixtures whose analysis returned an error")

	m.predictionsRecorded = m.counter("predictions_recorded_total", "Picks appended to the prediction log")
	m.predictionsSettled = m.counterVec("predictions_settled_total", "Settled predictions by result", "result")
	m.layerWeight = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "layer_weight", Help: "Current adjusted layer weight",
	}, []string{"layer"})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request latency", "endpoint", "method", "status_code")
}

// RecordFixtureAnalysed counts a successful fixture and its latency.
func RecordFixtureAnalysed(latencyMs float64) {
	globalManager.fixturesAnalysed.Inc()
	globalManager.fixtureDuration.Observe(latencyMs)
}

// RecordFixtureFailed counts an abandoned fixture.
func RecordFixtureFailed(reason string) {
	globalManager.fixturesFailed.WithLabelValues(reason).Inc()
}

// RecordFixtureDegraded counts a fixture that ran out of budget.
func RecordFixtureDegraded() {
	globalManager.fixturesDegraded.Inc()
}

// RecordPick counts an emitted pick by recommendation tier.
func RecordPick(recommendation string) {
	globalManager.picksByTier.WithLabelValues(recommendation).Inc()
}

// RecordTrapBlock counts a trap-gated market.
func RecordTrapBlock() {
	globalManager.trapBlocks.Inc()
}

// RecordSimulationLatency records one Monte Carlo run.
func RecordSimulationLatency(latencyMs float64) {
	globalManager.simulationLatency.Observe(latencyMs)
}

// RecordStoreRead records the latency of a history store call.
func RecordStoreRead(method string, latencyMs float64) {
	globalManager.storeReadLatency.WithLabelValues(method).Observe(latencyMs)
}

// RecordStoreDowngrade counts a store failure turned into data absence.
func RecordStoreDowngrade(method string) {
	globalManager.storeDowngrades.WithLabelValues(method).Inc()
}

// RecordStoreRetry counts a retried store call.
func RecordStoreRetry() {
	globalManager.storeRetries.Inc()
}

// RecordDNACacheLookup records a hit or miss on a cache tier ("memory" or "redis").
func RecordDNACacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.dnaCacheLookups.WithLabelValues(tier, result).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueRejected counts a fixture the queue refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records one fixture processed by a worker.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed fixture in the worker pool.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordPredictionRecorded counts a prediction log append.
func RecordPredictionRecorded() {
	globalManager.predictionsRecorded.Inc()
}

// RecordPredictionSettled counts a settled prediction ("won", "lost").
func RecordPredictionSettled(result string) {
	globalManager.predictionsSettled.WithLabelValues(result).Inc()
}

// UpdateLayerWeight publishes the adjusted weight of a scoring layer.
func UpdateLayerWeight(layer string, weight float64) {
	globalManager.layerWeight.WithLabelValues(layer).Set(weight)
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry the engine's metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
