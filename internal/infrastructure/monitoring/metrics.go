// Package monitoring provides prometheus metrics and OpenTelemetry tracing
// for the planner pipeline, its remote calls and the HTTP surface
package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/fetch"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "mealplanner"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	planner  *PlannerInstruments

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Remote call metrics
	remoteCallsTotal     *prometheus.CounterVec
	remoteCallDuration   *prometheus.HistogramVec
	remoteRetriesTotal   *prometheus.CounterVec
	remoteExhaustedTotal *prometheus.CounterVec

	// Pipeline metrics
	plansGeneratedTotal  prometheus.Counter
	planFailuresTotal    *prometheus.CounterVec
	planDuration         prometheus.Histogram
	planInstances        prometheus.Histogram
	bulkFetchTotal       *prometheus.CounterVec
	shoppingBatchesTotal *prometheus.CounterVec
}

// NewMetricsCollector registers every metric on registry. A nil registry gets
// a fresh one with the Go and process collectors.
func NewMetricsCollector(registry *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		remoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Remote call attempts by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		remoteCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Remote call attempt duration in seconds, including scheduler wait",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service"},
		),
		remoteRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_retries_total",
				Help:      "Retries scheduled after a retryable failure",
			},
			[]string{"service"},
		),
		remoteExhaustedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_retries_exhausted_total",
				Help:      "Remote calls that failed after every retry",
			},
			[]string{"service"},
		),

		plansGeneratedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plans_generated_total",
				Help:      "Meal plans generated and stored",
			},
		),
		planFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_failures_total",
				Help:      "Meal plan generations that failed, by pipeline stage",
			},
			[]string{"stage"},
		),
		planDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_generation_duration_seconds",
				Help:      "End-to-end plan generation duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
			},
		),
		planInstances: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_instances",
				Help:      "Scheduled recipe instances per generated plan",
				Buckets:   prometheus.LinearBuckets(3, 6, 8),
			},
		),
		bulkFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_fetch_items_total",
				Help:      "Items fetched in bulk by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		shoppingBatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shopping_batches_total",
				Help:      "Shopping-list batches by outcome",
			},
			[]string{"outcome"},
		),
	}
}

var (
	_ fetch.Observer       = (*MetricsCollector)(nil)
	_ outbound.PlanMetrics = (*MetricsCollector)(nil)
)

// WithPlanner forwards plan outcomes to the OpenTelemetry planner instruments
func (m *MetricsCollector) WithPlanner(planner *PlannerInstruments) *MetricsCollector {
	m.planner = planner
	return m
}

// Registry returns the prometheus registry backing the collector
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveCall records one remote attempt
func (m *MetricsCollector) ObserveCall(service string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if fetch.IsRetryable(err) {
			outcome = "retryable_error"
		}
	}
	m.remoteCallsTotal.WithLabelValues(service, outcome).Inc()
	m.remoteCallDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// ObserveRetry records a scheduled retry
func (m *MetricsCollector) ObserveRetry(service string) {
	m.remoteRetriesTotal.WithLabelValues(service).Inc()
}

// ObserveExhausted records a call that ran out of retries
func (m *MetricsCollector) ObserveExhausted(service string) {
	m.remoteExhaustedTotal.WithLabelValues(service).Inc()
}

// RecordPlanGenerated records a stored plan
func (m *MetricsCollector) RecordPlanGenerated(duration time.Duration, instances, substitutions, uncommitted int) {
	m.plansGeneratedTotal.Inc()
	m.planDuration.Observe(duration.Seconds())
	m.planInstances.Observe(float64(instances))

	if m.planner != nil {
		m.planner.Record(context.Background(), instances, substitutions, uncommitted)
	}
}

// RecordPlanFailed records a failed generation at the given stage
func (m *MetricsCollector) RecordPlanFailed(stage string) {
	m.planFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordBulkFetch records bulk fetch outcomes for recipes or favorites
func (m *MetricsCollector) RecordBulkFetch(kind string, succeeded, failed int) {
	m.bulkFetchTotal.WithLabelValues(kind, "succeeded").Add(float64(succeeded))
	m.bulkFetchTotal.WithLabelValues(kind, "failed").Add(float64(failed))
}

// RecordShoppingBatches records batch outcomes of one consolidation
func (m *MetricsCollector) RecordShoppingBatches(succeeded, failed int) {
	m.shoppingBatchesTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	m.shoppingBatchesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RegisterCacheStats exposes recipe cache hits and misses
func (m *MetricsCollector) RegisterCacheStats(stats func() (hits, misses int64)) error {
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recipe_cache_hits_total",
		Help:      "Recipe lookups served from cache",
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recipe_cache_misses_total",
		Help:      "Recipe lookups that went to the provider",
	}, func() float64 {
		_, mi := stats()
		return float64(mi)
	})

	if err := m.registry.Register(hits); err != nil {
		return err
	}
	return m.registry.Register(misses)
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
