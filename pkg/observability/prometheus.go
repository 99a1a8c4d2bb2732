package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/stateviz/pkg/errors"
)

// PrometheusHooks records pipeline, cache and HTTP events as Prometheus
// metrics. It implements PipelineHooks, CacheHooks and HTTPHooks.
type PrometheusHooks struct {
	extractions *prometheus.CounterVec
	machines    prometheus.Counter
	stageTime   *prometheus.HistogramVec
	pending     prometheus.Counter
	cacheOps    *prometheus.CounterVec
	cacheBytes  prometheus.Counter
	requests    *prometheus.CounterVec
	reqTime     *prometheus.HistogramVec
}

// NewPrometheusHooks creates the metrics and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stateviz_extractions_total",
			Help: "Script evaluations by result code.",
		}, []string{"code"}),
		machines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stateviz_machines_extracted_total",
			Help: "Machine definitions recovered from scripts.",
		}),
		stageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stateviz_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "result"}),
		pending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stateviz_render_pending_edges_total",
			Help: "Edges skipped during rendering because no path was available.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stateviz_cache_operations_total",
			Help: "Cache operations by key type and outcome.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stateviz_cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stateviz_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		reqTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stateviz_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(h.extractions, h.machines, h.stageTime, h.pending,
		h.cacheOps, h.cacheBytes, h.requests, h.reqTime)
	return h
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) OnExtractStart(context.Context, int) {}

func (h *PrometheusHooks) OnExtractComplete(_ context.Context, machines int, d time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = string(errors.GetCode(err))
		if code == "" {
			code = "UNKNOWN"
		}
	}
	h.extractions.WithLabelValues(code).Inc()
	h.machines.Add(float64(machines))
	h.stageTime.WithLabelValues("extract", result(err)).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnLayoutStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	h.stageTime.WithLabelValues("layout", result(err)).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnRenderStart(context.Context, string, []string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ string, pending int, d time.Duration, err error) {
	h.pending.Add(float64(pending))
	h.stageTime.WithLabelValues("render", result(err)).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.reqTime.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
