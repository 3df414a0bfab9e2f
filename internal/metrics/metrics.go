// Package metrics provides Prometheus instrumentation for the scoring
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the pipeline's Prometheus collectors.
type Manager struct {
	registry *prometheus.Registry

	RebuildsTotal        prometheus.Counter
	RebuildDuration      prometheus.Histogram
	EventsProcessed      prometheus.Counter
	EventErrors          prometheus.Counter
	OpportunitiesCreated prometheus.Counter
	OpportunitiesUpdated prometheus.Counter
	ResolutionsCreated   prometheus.Counter
}

// NewManager creates a metrics manager with its own registry, keeping the
// default Go collectors out of the scrape output.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		RebuildsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "rebuilds_total",
			Help:      "Number of opportunity rebuild passes started.",
		}),
		RebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safety_pipeline",
			Name:      "rebuild_duration_seconds",
			Help:      "Wall-clock duration of rebuild passes.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		EventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "events_processed_total",
			Help:      "Number of events scored during rebuilds.",
		}),
		EventErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "event_errors_total",
			Help:      "Number of events that failed scoring and were skipped.",
		}),
		OpportunitiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "opportunities_created_total",
			Help:      "Number of new opportunity rows inserted.",
		}),
		OpportunitiesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "opportunities_updated_total",
			Help:      "Number of existing opportunity rows replaced.",
		}),
		ResolutionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "safety_pipeline",
			Name:      "provisional_companies_total",
			Help:      "Number of provisional companies created by the resolver.",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
