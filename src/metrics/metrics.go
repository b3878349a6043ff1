// Package metrics provides Prometheus instrumentation for the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AnalysesTotal counts portfolio valuations by kind (analyze, rank) and outcome.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_tracker_analyses_total",
		Help: "Portfolio valuations performed",
	}, []string{"kind", "outcome"})

	// SkippedPositions counts positions left out of a valuation, by reason.
	SkippedPositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_tracker_skipped_positions_total",
		Help: "Positions dropped from valuation",
	}, []string{"reason"})

	// PNLDiscrepancies counts summaries where the difference method overrode
	// the per-position sum.
	PNLDiscrepancies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_tracker_pnl_discrepancies_total",
		Help: "Summaries reconciled to the difference method",
	})

	// AutoBuildsTotal counts auto-portfolio builds by offset and outcome.
	AutoBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_tracker_auto_builds_total",
		Help: "Auto-portfolio builds",
	}, []string{"offset", "outcome"})

	// AutoBuildDuration tracks how long a build transaction takes.
	AutoBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_tracker_auto_build_duration_seconds",
		Help:    "Auto-portfolio build duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// CacheLookups counts membership cache reads by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_tracker_membership_cache_total",
		Help: "KCEX membership cache lookups",
	}, []string{"result"})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_tracker_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_tracker_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics labelled with the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
