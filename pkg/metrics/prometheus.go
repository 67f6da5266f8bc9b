package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Upstream profile API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Scoring and attestation
	scoresComputed  prometheus.Counter
	scoreValue      prometheus.Histogram
	attestations    prometheus.Counter
	lockViolations  prometheus.Counter
	flagsRecorded   *prometheus.CounterVec
	flagStoreErrors *prometheus.CounterVec

	// Ledger
	ledgerOps     *prometheus.CounterVec
	ledgerLatency *prometheus.HistogramVec

	// Bulk
	batchRuns       prometheus.Counter
	batchIdentities *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	batchDuplicates prometheus.Counter

	// Queue and worker
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueRejected  *prometheus.CounterVec
	workerActive   prometheus.Gauge
	workerJobs     *prometheus.CounterVec
	workerDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager.Store(NewManager(WithPrometheusRegistry(customRegistry)))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "gscore",
		subsystem:      "",
		latencyBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// SetGlobal replaces the manager used by the package-level recorders.
func SetGlobal(m *Manager) error {
	if m == nil {
		return ErrNoManager
	}
	globalManager.Store(m)
	return nil
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Profile API requests by endpoint and status class", "endpoint", "status")
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds",
		"Profile API request latency in milliseconds", m.latencyBuckets, "endpoint")

	m.scoresComputed = m.counter("scores_computed_total", "Scores computed from collected metrics")
	m.scoreValue = m.histogram("score_value", "Distribution of final scores",
		[]float64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000})
	m.attestations = m.counter("attestations_total", "Attestation ids derived")
	m.lockViolations = m.counter("lock_violations_total", "Store attempts rejected by the identity lock")
	m.flagsRecorded = m.counterVec("flags_recorded_total", "Flag entries appended by failure kind", "kind")
	m.flagStoreErrors = m.counterVec("flag_store_errors_total", "Flag store failures by operation", "op")

	m.ledgerOps = m.counterVec("ledger_operations_total", "Ledger calls by operation and result", "op", "result")
	m.ledgerLatency = m.histogramVec("ledger_latency_milliseconds",
		"Ledger call latency in milliseconds", m.latencyBuckets, "op")

	m.batchRuns = m.counter("batch_runs_total", "Bulk scoring runs completed")
	m.batchIdentities = m.counterVec("batch_identities_total", "Identities processed in bulk runs by outcome", "outcome")
	m.batchDuration = m.histogram("batch_duration_milliseconds", "Bulk run duration in milliseconds",
		[]float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000})
	m.batchDuplicates = m.counter("batch_duplicates_total", "Async batch submissions rejected as duplicates")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the batch queue")
	m.queueCapacity = m.gauge("queue_capacity", "Batch queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Jobs rejected by the queue", "reason")
	m.workerActive = m.gauge("worker_active_count", "Workers currently running")
	m.workerJobs = m.counterVec("worker_jobs_total", "Jobs finished by workers by result", "result")
	m.workerDuration = m.histogram("worker_job_duration_milliseconds", "Worker job duration in milliseconds", m.latencyBuckets)

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func g() *Manager { return globalManager.Load() }

// RecordUpstreamRequest counts a profile API call. status is a class such as "2xx" or "error".
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	g().upstreamRequests.WithLabelValues(endpoint, status).Inc()
	g().upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordScore records a computed final score.
func RecordScore(score int) {
	g().scoresComputed.Inc()
	g().scoreValue.Observe(float64(score))
}

// RecordAttestation counts a derived attestation id.
func RecordAttestation() { g().attestations.Inc() }

// RecordLockViolation counts an identity-lock rejection.
func RecordLockViolation() { g().lockViolations.Inc() }

// RecordFlag counts an appended flag entry.
func RecordFlag(kind string) { g().flagsRecorded.WithLabelValues(kind).Inc() }

// RecordFlagStoreError counts a flag store failure.
func RecordFlagStoreError(op string) { g().flagStoreErrors.WithLabelValues(op).Inc() }

// RecordLedgerOp records a ledger call outcome. result is "ok", "no_record" or "error".
func RecordLedgerOp(op, result string, latencyMs float64) {
	g().ledgerOps.WithLabelValues(op, result).Inc()
	g().ledgerLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordBatch records a finished bulk run.
func RecordBatch(scored, failed int, durationMs float64) {
	g().batchRuns.Inc()
	g().batchIdentities.WithLabelValues("scored").Add(float64(scored))
	g().batchIdentities.WithLabelValues("error").Add(float64(failed))
	g().batchDuration.Observe(durationMs)
}

// RecordBatchDuplicate counts a rejected duplicate batch submission.
func RecordBatchDuplicate() { g().batchDuplicates.Inc() }

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { g().queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { g().queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { g().queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { g().queueDequeued.Inc() }

// RecordQueueRejected counts a job the queue refused.
func RecordQueueRejected(reason string) { g().queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { g().workerActive.Set(float64(count)) }

// RecordWorkerJob records a job handled by a worker.
func RecordWorkerJob(result string, durationMs float64) {
	g().workerJobs.WithLabelValues(result).Inc()
	g().workerDuration.Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	g().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	g().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	g().httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { g().systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { g().systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
