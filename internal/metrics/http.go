package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// Search requests wait up to the search timeout before answering 202.
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		},
		[]string{"method", "route", "mode", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, discovery mode and status",
		},
		[]string{"method", "route", "mode", "status"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "discovery",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpInFlight)
}

// Middleware records per-route request counts and latency. It must run inside
// the chi router so the matched route pattern is available after the handler.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var route, mode string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
				mode = rctx.URLParam("mode")
			}
			labels := []string{r.Method, normalizePath(route), modeLabel(mode), strconv.Itoa(status)}

			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// modeLabel keeps the mode label bounded: the path segment is user input.
func modeLabel(mode string) string {
	switch mode {
	case "":
		return "none"
	case "friend", "dating":
		return mode
	default:
		return "invalid"
	}
}

// normalizePath turns a chi route pattern into a metrics label. Unmatched
// requests share one label, and the trailing slash chi leaves on a mounted
// index route is dropped so /discovery/{mode} and /discovery/{mode}/ match.
func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	path = strings.TrimSuffix(path, "/*")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
