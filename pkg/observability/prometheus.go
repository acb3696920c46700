package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/cutgraph/pkg/errors"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "cutgraph"

const (
	editSubsystem   = "edit"
	storeSubsystem  = "store"
	renderSubsystem = "render"
	cacheSubsystem  = "cache"
	httpSubsystem   = "http"
)

// Metrics implements every hook interface on top of Prometheus collectors.
// Register it with [Register]; expose it with promhttp.
//
// All operations are thread-safe.
type Metrics struct {
	// EditsTotal counts editing operations.
	// Labels: op (move, add-cut, ...), result (ok, collision, invalid_operation, ...)
	EditsTotal *prometheus.CounterVec

	// EditDurationSeconds measures how long an edit took, including
	// rejected ones.
	EditDurationSeconds *prometheus.HistogramVec

	// ChangedNodesTotal counts nodes repainted by accepted edits.
	ChangedNodesTotal *prometheus.CounterVec

	// SelectionSize is the size of the most recent selection.
	SelectionSize prometheus.Gauge

	// StoreOpsTotal counts document store operations.
	// Labels: backend (file, redis), op (load, save, delete), result
	StoreOpsTotal *prometheus.CounterVec

	// StoreDurationSeconds measures load and save latency.
	StoreDurationSeconds *prometheus.HistogramVec

	// RendersTotal counts render calls by output format and result.
	RendersTotal *prometheus.CounterVec

	// RenderDurationSeconds measures render latency by format.
	RenderDurationSeconds *prometheus.HistogramVec

	// RenderBytes observes the size of rendered artifacts.
	RenderBytes *prometheus.HistogramVec

	// CacheEventsTotal counts cache hits, misses and writes.
	// Labels: key_type, event (hit, miss, set)
	CacheEventsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts served requests.
	// Labels: method, route, code
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPDurationSeconds measures request latency.
	HTTPDurationSeconds *prometheus.HistogramVec

	// HTTPInFlight is the number of requests being served.
	HTTPInFlight prometheus.Gauge

	// HTTPErrorsTotal counts handler errors by error code.
	HTTPErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them through promhttp.Handler; tests
// pass a fresh prometheus.NewRegistry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EditsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: editSubsystem,
			Name:      "operations_total",
			Help:      "Editing operations by operation and result",
		}, []string{"op", "result"}),
		EditDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: editSubsystem,
			Name:      "duration_seconds",
			Help:      "Editing operation latency in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"op"}),
		ChangedNodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: editSubsystem,
			Name:      "changed_nodes_total",
			Help:      "Nodes whose geometry changed in accepted edits",
		}, []string{"op"}),
		SelectionSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: editSubsystem,
			Name:      "selection_size",
			Help:      "Number of nodes in the most recent selection",
		}),
		StoreOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: storeSubsystem,
			Name:      "operations_total",
			Help:      "Document store operations by backend, operation and result",
		}, []string{"backend", "op", "result"}),
		StoreDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: storeSubsystem,
			Name:      "duration_seconds",
			Help:      "Document store latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: renderSubsystem,
			Name:      "renders_total",
			Help:      "Render calls by format and result",
		}, []string{"format", "result"}),
		RenderDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: renderSubsystem,
			Name:      "duration_seconds",
			Help:      "Render latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"format"}),
		RenderBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: renderSubsystem,
			Name:      "output_bytes",
			Help:      "Size of rendered artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"format"}),
		CacheEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: cacheSubsystem,
			Name:      "events_total",
			Help:      "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		HTTPDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "in_flight_requests",
			Help:      "Requests currently being served",
		}),
		HTTPErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "errors_total",
			Help:      "Handler errors by route and error code",
		}, []string{"route", "error_code"}),
	}
}

// result turns an error into a low-cardinality label value.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

// =============================================================================
// Hook Implementations
// =============================================================================

func (m *Metrics) OnEdit(op string, changed int, d time.Duration, err error) {
	m.EditsTotal.WithLabelValues(op, result(err)).Inc()
	m.EditDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
	if err == nil {
		m.ChangedNodesTotal.WithLabelValues(op).Add(float64(changed))
	}
}

func (m *Metrics) OnSelection(size int) {
	m.SelectionSize.Set(float64(size))
}

func (m *Metrics) OnLoad(_ context.Context, backend, _ string, d time.Duration, err error) {
	m.StoreOpsTotal.WithLabelValues(backend, "load", result(err)).Inc()
	m.StoreDurationSeconds.WithLabelValues(backend, "load").Observe(d.Seconds())
}

func (m *Metrics) OnSave(_ context.Context, backend, _ string, _ int, d time.Duration, err error) {
	m.StoreOpsTotal.WithLabelValues(backend, "save", result(err)).Inc()
	m.StoreDurationSeconds.WithLabelValues(backend, "save").Observe(d.Seconds())
}

func (m *Metrics) OnDelete(_ context.Context, backend, _ string, err error) {
	m.StoreOpsTotal.WithLabelValues(backend, "delete", result(err)).Inc()
}

func (m *Metrics) OnRenderStart(context.Context, string, int) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.RendersTotal.WithLabelValues(format, result(err)).Inc()
	m.RenderDurationSeconds.WithLabelValues(format).Observe(d.Seconds())
	if err == nil {
		m.RenderBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, route string, err error) {
	m.HTTPErrorsTotal.WithLabelValues(route, result(err)).Inc()
}
