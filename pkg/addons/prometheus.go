package addons

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumen-ui/lumen/pkg/lumen"
)

// MetricsConfig configures the Prometheus plugin.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lumen").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus plugin.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "lumen",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// containerMetrics holds the Prometheus metrics for one plugin instance.
// Label cardinality stays at the container level; keys would be unbounded.
type containerMetrics struct {
	setsTotal          *prometheus.CounterVec
	setsNoopTotal      *prometheus.CounterVec
	getsTotal          *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	subscriptionsTotal *prometheus.CounterVec
}

func initContainerMetrics(config MetricsConfig) *containerMetrics {
	factory := promauto.With(config.Registry)

	return &containerMetrics{
		setsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of container writes that reached the plugin chain",
			ConstLabels: config.ConstLabels,
		}, []string{"container"}),

		setsNoopTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_noop_total",
			Help:        "Total number of writes whose chained value matched the stored value (vetoed or redundant)",
			ConstLabels: config.ConstLabels,
		}, []string{"container"}),

		getsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "gets_total",
			Help:        "Total number of container reads",
			ConstLabels: config.ConstLabels,
		}, []string{"container"}),

		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of per-key flush notifications delivered",
			ConstLabels: config.ConstLabels,
		}, []string{"container"}),

		subscriptionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions_total",
			Help:        "Total number of Subscribe calls observed",
			ConstLabels: config.ConstLabels,
		}, []string{"container"}),
	}
}

// Prometheus returns a plugin that counts container operations.
//
// Metrics collected:
//   - lumen_sets_total: Counter of writes by container
//   - lumen_sets_noop_total: Counter of writes whose chained value matched
//     the stored value (vetoed or redundant; register this plugin last in
//     the chain so it sees the final chained value)
//   - lumen_gets_total: Counter of reads by container
//   - lumen_notifications_total: Counter of per-key flush notifications
//   - lumen_subscriptions_total: Counter of Subscribe calls
//
// Expose them the usual way:
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) lumen.Plugin {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := initContainerMetrics(config)
	var name string

	return lumen.Plugin{
		Name: "prometheus",
		OnInit: func(c *lumen.Container) {
			name = c.Name()
		},
		OnGet: func(key string, value any) lumen.HookResult {
			m.getsTotal.WithLabelValues(name).Inc()
			return lumen.Unchanged()
		},
		OnSet: func(key string, next, prev any) lumen.HookResult {
			m.setsTotal.WithLabelValues(name).Inc()
			if reflect.DeepEqual(next, prev) {
				m.setsNoopTotal.WithLabelValues(name).Inc()
			}
			return lumen.Unchanged()
		},
		OnSubscribe: func(key string) {
			m.subscriptionsTotal.WithLabelValues(name).Inc()
		},
		OnNotify: func(key string, value any) {
			m.notificationsTotal.WithLabelValues(name).Inc()
		},
	}
}
