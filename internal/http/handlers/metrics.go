package handlers

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	httpctx "webpulse/internal/http/ctx"
	"webpulse/internal/tracking"
)

var (
	requestsTotal    *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
	metricsOnce      sync.Once
)

// InitPrometheusMetrics registers the tracker collectors with the default
// registry. Safe to call more than once.
func InitPrometheusMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webpulse",
				Name:      "requests_total",
				Help:      "Total number of routed requests by kind and status.",
			},
			[]string{"kind", "status"},
		)
		eventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webpulse",
				Name:      "events_total",
				Help:      "Total number of accepted tracking events.",
			},
			[]string{"project", "type"},
		)
		requestDurations = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "webpulse",
				Name:      "request_duration_seconds",
				Help:      "Histogram of routed request durations in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind"},
		)
		prometheus.MustRegister(requestsTotal, eventsTotal, requestDurations)
	})
}

func observe(kind tracking.RequestKind, out tracking.Outcome, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(kind.String(), strconv.Itoa(status)).Inc()
	requestDurations.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	if out.EventType != "" && status == fasthttp.StatusOK {
		typ := out.EventType
		if !tracking.KnownEventType(typ) {
			typ = "other"
		}
		eventsTotal.WithLabelValues(out.Project, typ).Inc()
	}
}

// RequestLogger returns fasthttp middleware that logs method, path, kind,
// status and duration.
func RequestLogger(log zerolog.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)

			ev := log.Info()
			if ctx.Response.StatusCode() >= fasthttp.StatusInternalServerError {
				ev = log.Warn()
			}
			if project, ok := httpctx.ProjectFromCtx(ctx); ok {
				ev = ev.Str("project", project)
			}
			ev.Bytes("method", ctx.Method()).
				Bytes("path", ctx.Path()).
				Str("kind", httpctx.RequestKindFromCtx(ctx).String()).
				Int("status", ctx.Response.StatusCode()).
				Dur("duration", time.Since(start)).
				Str("ip", ctx.RemoteIP().String()).
				Msg("request")
		}
	}
}
