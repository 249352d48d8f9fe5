package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanscompark/castleblock/pkg/observability"
)

const namespace = "castleblock"

// Metrics collects render, cache and store events as Prometheus metrics.
// It implements the observability hook interfaces.
type Metrics struct {
	registry *prometheus.Registry

	renders        *prometheus.CounterVec
	renderDur      *prometheus.HistogramVec
	inFlight       *prometheus.GaugeVec
	cacheRequests  *prometheus.CounterVec
	cacheSetBytes  *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	storeOpLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Number of block renders by mode, past flag and result",
	}, []string{"mode", "past", "result"})
	m.renderDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering a block, cache lookups included",
		Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .1},
	}, []string{"mode"})
	m.inFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "renders_in_flight",
		Help:      "Renders currently executing",
	}, []string{"mode"})
	m.cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Cache lookups by entry kind and result",
	}, []string{"kind", "result"})
	m.cacheSetBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_written_bytes_total",
		Help:      "Bytes written to the cache by entry kind",
	}, []string{"kind"})
	m.storeOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Block store operations by backend, operation and result",
	}, []string{"backend", "op", "result"})
	m.storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Block store operation latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})

	m.registry.MustRegister(
		m.renders, m.renderDur, m.inFlight,
		m.cacheRequests, m.cacheSetBytes,
		m.storeOps, m.storeOpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Register installs m as the global render, cache and store hooks.
func (m *Metrics) Register() {
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStoreHooks(m)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnRenderStart(_ context.Context, mode string) {
	m.inFlight.WithLabelValues(mode).Inc()
}

func (m *Metrics) OnRenderComplete(_ context.Context, mode string, past bool, d time.Duration, err error) {
	m.inFlight.WithLabelValues(mode).Dec()
	m.renders.WithLabelValues(mode, strconv.FormatBool(past), result(err)).Inc()
	m.renderDur.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.cacheSetBytes.WithLabelValues(kind).Add(float64(size))
}

func (m *Metrics) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(backend, op, result(err)).Inc()
	m.storeOpLatency.WithLabelValues(backend, op).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.RenderHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.StoreHooks  = (*Metrics)(nil)
)
