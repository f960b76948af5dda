package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "watersync_"

	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	mutations *prometheus.CounterVec
	exports   *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)
		mutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mutations_total",
				Help: "Create/update/delete operations by kind and result",
			},
			[]string{"kind", "op", "result"},
		)
		exports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "List exports by kind and format",
			},
			[]string{"kind", "format"},
		)
		prometheus.MustRegister(httpRequests, httpLatency, mutations, exports)
	})
}

// Middleware records every request under its route pattern, not the raw path.
// Handler errors are written through the error handler first so the status
// counted is the one sent.
func Middleware() echo.MiddlewareFunc {
	Init()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Mutation(kind, op, result string) {
	if mutations == nil {
		return
	}
	mutations.WithLabelValues(kind, op, result).Inc()
}

func Export(kind, format string) {
	if exports == nil {
		return
	}
	exports.WithLabelValues(kind, format).Inc()
}

func Handler() echo.HandlerFunc {
	Init()
	return echo.WrapHandler(promhttp.Handler())
}
