// Package metrics exposes the broker's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sandbox_sessions_active",
			Help: "Number of currently live sandbox sessions",
		},
	)

	ExecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandbox_exec_duration_seconds",
			Help:    "Time to execute code in a sandbox session",
			Buckets: []float64{0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0, 120.0},
		},
		[]string{"result"}, // "ok", "error", "timeout"
	)

	EngineOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandbox_engine_op_duration_seconds",
			Help:    "Time for container engine operations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"}, // "create", "start", "remove", "list", "inspect", "exec", "put_archive", "get_archive"
	)

	SessionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_sessions_closed_total",
			Help: "Total sessions closed, by reason",
		},
		[]string{"reason"}, // only "client" is recorded: Manager.Close counts every close under it, TTL closes included; orphan sweeps are not counted
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_http_requests_total",
			Help: "Total HTTP requests served by the artifact download surface",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		ExecDuration,
		EngineOpDuration,
		SessionsClosedTotal,
		HTTPRequestsTotal,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware returns Echo middleware that counts requests to the
// artifact HTTP surface by method, path, and status.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			HTTPRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()
			return err
		}
	}
}

// StartMetricsServer starts a standalone HTTP server serving /metrics on addr.
func StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			// The error is discarded; metrics are non-critical.
		}
	}()
	return srv
}

// ObserveEngineOp times a container engine call and records it under
// operation, for use as: defer metrics.ObserveEngineOp("exec")()
func ObserveEngineOp(operation string) func() {
	start := time.Now()
	return func() {
		EngineOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
