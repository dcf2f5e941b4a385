package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ctxKey string

const routeLabelKey ctxKey = "metrics_route"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "punchclock_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "punchclock_http_errors_total",
		Help: "Total number of HTTP requests resulting in server errors.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "punchclock_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	dbLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "punchclock_db_latency_seconds",
		Help:    "Histogram of database operation latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "route"})

	clockTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "punchclock_clock_transitions_total",
		Help: "Clock-in and clock-out attempts by outcome.",
	}, []string{"direction", "outcome"})

	recomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "punchclock_hours_recompute_seconds",
		Help:    "Histogram of accumulated-time recomputation latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})

	sweepRemovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "punchclock_outstanding_logins_removed_total",
		Help: "Dangling clock-ins discarded by the nightly sweep.",
	})

	sinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "punchclock_sink_failures_total",
		Help: "Failed writes to external sinks such as the spreadsheet or mail relay.",
	}, []string{"sink"})
)

// Middleware records request metrics and labels the context with the request path for DB latency.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), routeLabelKey, r.URL.Path)

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			// chi fills in the pattern while routing.
			route := routePattern(r)
			status := ww.Status()
			method := r.Method
			duration := time.Since(start).Seconds()
			statusCode := strconv.Itoa(status)

			httpRequestsTotal.WithLabelValues(method, route).Inc()
			httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(duration)
			if status >= http.StatusInternalServerError {
				httpErrorsTotal.WithLabelValues(method, route, statusCode).Inc()
			}
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDBLatency records database latency for a given operation, associating it with request labels when available.
func ObserveDBLatency(ctx context.Context, operation string, start time.Time) {
	route := routeFromContext(ctx)
	dbLatency.WithLabelValues(operation, route).Observe(time.Since(start).Seconds())
}

// ObserveClockTransition counts a clock attempt. Outcome is "ok" or the
// failure code reported to the client.
func ObserveClockTransition(clockingIn bool, outcome string) {
	direction := "out"
	if clockingIn {
		direction = "in"
	}
	clockTransitions.WithLabelValues(direction, outcome).Inc()
}

// ObserveRecompute records how long a recomputation triggered by trigger took.
func ObserveRecompute(trigger string, start time.Time) {
	recomputeDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
}

// AddSweepRemovals adds n discarded clock-ins to the sweep counter.
func AddSweepRemovals(n int) {
	sweepRemovals.Add(float64(n))
}

// IncSinkFailure counts a failed write to the named sink.
func IncSinkFailure(sink string) {
	sinkFailures.WithLabelValues(sink).Inc()
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeLabelKey).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
