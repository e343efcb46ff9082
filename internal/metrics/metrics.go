// Package metrics exports atom runtime activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/schema"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "atom"

const (
	runtimeSubsystem = "runtime"
	schemaSubsystem  = "schema"
)

// Collector records runtime and schema activity. It implements
// atom.Instrumentation.
type Collector struct {
	// WritesTotal counts committed writes and container mutations.
	// Labels: class, member, kind (create, update, container-insert, ...)
	WritesTotal *prometheus.CounterVec

	// ValidationFailuresTotal counts rejected writes.
	// Labels: class, member
	ValidationFailuresTotal *prometheus.CounterVec

	// ObserversNotifiedTotal counts observer invocations.
	// Labels: class, member
	ObserversNotifiedTotal *prometheus.CounterVec

	// NotifyDurationSeconds measures one notification pass.
	// Labels: class, member
	NotifyDurationSeconds *prometheus.HistogramVec

	// ObserverFailuresTotal counts observers that returned an error or
	// panicked.
	// Labels: class, member, reason (error, panic)
	ObserverFailuresTotal *prometheus.CounterVec

	// ReloadsTotal counts definition reloads.
	// Labels: status (success, error)
	ReloadsTotal *prometheus.CounterVec

	// ClassesLoaded is the number of classes from the last successful
	// reload.
	ClassesLoaded prometheus.Gauge
}

// New registers the collector's metrics with reg. A nil reg uses the
// default Prometheus registerer; an empty namespace uses
// DefaultNamespace.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Collector{
		WritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: runtimeSubsystem,
				Name:      "writes_total",
				Help:      "Committed member writes and container mutations by kind",
			},
			[]string{"class", "member", "kind"},
		),

		ValidationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: runtimeSubsystem,
				Name:      "validation_failures_total",
				Help:      "Writes rejected by validation",
			},
			[]string{"class", "member"},
		),

		ObserversNotifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: runtimeSubsystem,
				Name:      "observers_notified_total",
				Help:      "Observer invocations",
			},
			[]string{"class", "member"},
		),

		NotifyDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: runtimeSubsystem,
				Name:      "notify_duration_seconds",
				Help:      "Duration of one observer notification pass in seconds",
				Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"class", "member"},
		),

		ObserverFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: runtimeSubsystem,
				Name:      "observer_failures_total",
				Help:      "Observers that returned an error or panicked",
			},
			[]string{"class", "member", "reason"},
		),

		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: schemaSubsystem,
				Name:      "reloads_total",
				Help:      "Class definition reloads by status",
			},
			[]string{"status"},
		),

		ClassesLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: schemaSubsystem,
				Name:      "classes_loaded",
				Help:      "Classes defined by the last successful reload",
			},
		),
	}
}

// SlotWritten implements atom.Instrumentation.
func (c *Collector) SlotWritten(class, member string, kind atom.ChangeKind) {
	c.WritesTotal.WithLabelValues(class, member, kind.String()).Inc()
}

// ValidationFailed implements atom.Instrumentation.
func (c *Collector) ValidationFailed(class, member string) {
	c.ValidationFailuresTotal.WithLabelValues(class, member).Inc()
}

// ObserversNotified implements atom.Instrumentation.
func (c *Collector) ObserversNotified(class, member string, n int, elapsed time.Duration) {
	c.ObserversNotifiedTotal.WithLabelValues(class, member).Add(float64(n))
	c.NotifyDurationSeconds.WithLabelValues(class, member).Observe(elapsed.Seconds())
}

// ObserverFailed implements atom.Instrumentation.
func (c *Collector) ObserverFailed(class, member string, panicked bool) {
	reason := "error"
	if panicked {
		reason = "panic"
	}
	c.ObserverFailuresTotal.WithLabelValues(class, member, reason).Inc()
}

// RecordReload records the outcome of a definition reload. Its
// signature matches the schema watcher's reload callback.
func (c *Collector) RecordReload(res *schema.LoadResult, err error) {
	if err != nil {
		c.ReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	c.ReloadsTotal.WithLabelValues("success").Inc()
	c.ClassesLoaded.Set(float64(len(res.Added) + len(res.Replaced)))
}

var _ atom.Instrumentation = (*Collector)(nil)
