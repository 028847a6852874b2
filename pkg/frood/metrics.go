package frood

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnmatchedLabel replaces every route part of a failed dispatch whose request does
// not name a registered action, so unroutable paths share one series.
const UnmatchedLabel = "unmatched"

// DispatchObserver is notified once per finished dispatch. result is "rendered",
// "redirect" or "error". A failed dispatch of an unregistered route is reported with
// UnmatchedLabel in place of module, sub-module, controller and action.
type DispatchObserver interface {
	ObserveDispatch(req *Request, result string, status int, duration time.Duration)
}

// MetricsConfig configures the Prometheus dispatch observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "frood").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus dispatch observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// PrometheusObserver records dispatch counts and durations.
//
// Metrics collected:
//   - frood_dispatch_total: Counter of dispatches by module, sub-module, controller, action and result
//   - frood_dispatch_duration_seconds: Histogram of dispatch duration by module and result
type PrometheusObserver struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

// NewPrometheusObserver registers the dispatch metrics and returns their observer
func NewPrometheusObserver(opts ...MetricsOption) *PrometheusObserver {
	config := MetricsConfig{
		Namespace: "frood",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &PrometheusObserver{
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_total",
			Help:        "Total number of dispatched requests",
			ConstLabels: config.ConstLabels,
		}, []string{"module", "sub_module", "controller", "action", "result"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"module", "result"}),
	}
}

// ObserveDispatch implements DispatchObserver
func (o *PrometheusObserver) ObserveDispatch(req *Request, result string, _ int, duration time.Duration) {
	o.dispatchTotal.WithLabelValues(req.Module(), req.SubModule(), req.Controller(), req.Action(), result).Inc()
	o.dispatchDuration.WithLabelValues(req.Module(), result).Observe(duration.Seconds())
}
