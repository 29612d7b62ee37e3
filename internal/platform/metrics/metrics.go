// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the subset of the collector used by domain services. Services
// accept this interface so tests can pass a stub and so metrics stay optional.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordEventsFetched(count int)
	ObserveAvailabilityCompute(d time.Duration)
	RecordEmptyWindow()
	RecordPastDateRejection()
}

// Collector registers and updates all Prometheus metrics.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	eventsFetched prometheus.Counter
	availCompute  prometheus.Histogram
	availNotFound prometheus.Counter
	availPastDate prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "praxis_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "praxis_availability_cache_hits_total",
			Help: "Availability projections served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "praxis_availability_cache_misses_total",
			Help: "Availability projections computed fresh.",
		}),
		eventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "praxis_calendar_events_fetched_total",
			Help: "Calendar events read from the event source.",
		}),
		availCompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "praxis_availability_compute_seconds",
			Help:    "Time spent computing an availability projection.",
			Buckets: prometheus.DefBuckets,
		}),
		availNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "praxis_availability_empty_windows_total",
			Help: "Availability requests that found no events in the window.",
		}),
		availPastDate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "praxis_availability_past_date_rejections_total",
			Help: "Availability requests rejected for a start date in the past.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.cacheHits,
		c.cacheMisses,
		c.eventsFetched,
		c.availCompute,
		c.availNotFound,
		c.availPastDate,
	)

	return c
}

// RecordCacheHit counts a projection served from cache.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss counts a projection computed fresh.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordEventsFetched counts events read from the event source.
func (c *Collector) RecordEventsFetched(count int) {
	c.eventsFetched.Add(float64(count))
}

// ObserveAvailabilityCompute records how long a projection took to compute.
func (c *Collector) ObserveAvailabilityCompute(d time.Duration) {
	c.availCompute.Observe(d.Seconds())
}

// RecordEmptyWindow counts a NotFound outcome.
func (c *Collector) RecordEmptyWindow() {
	c.availNotFound.Inc()
}

// RecordPastDateRejection counts a past start date rejection.
func (c *Collector) RecordPastDateRejection() {
	c.availPastDate.Inc()
}

// HTTPMetrics returns echo middleware recording request counts and latency.
// The route template (e.g. /api/v1/doctors/:id/availability) is used as the
// label, not the raw path, to keep cardinality bounded.
func (c *Collector) HTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()

			err := next(ec)

			status := ec.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ec.Request().Method

			c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
