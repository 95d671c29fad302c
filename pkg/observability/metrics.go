// Package observability provides a Prometheus metrics collector that plugs
// into the engine through lifecycle hooks.
package observability

import (
	"context"

	"github.com/arbored/weft/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts runs and node executions and tracks their durations.
// Attach it to an engine with Hooks().
type Metrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	nodesTotal   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg and returns the bundle.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_runs_total",
				Help: "Total number of workflow runs",
			},
			[]string{"graph", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weft_run_duration_seconds",
				Help:    "Duration of complete workflow runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"graph"},
		),
		nodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_node_executions_total",
				Help: "Total number of node executions",
			},
			[]string{"node", "status"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weft_node_duration_seconds",
				Help:    "Duration of individual node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
	}
}

// Hooks returns lifecycle hooks that feed the collectors. Combine with
// other hooks via Chain if the caller needs both metrics and logging.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(_ context.Context, ev *domain.RunEvent) {
			status := "success"
			if ev.Err != nil {
				status = "failure"
			}
			m.runsTotal.WithLabelValues(ev.Graph, status).Inc()
			m.runDuration.WithLabelValues(ev.Graph).Observe(ev.Duration.Seconds())
		},
		OnNodeFinish: func(_ context.Context, ev *domain.NodeEvent) {
			m.nodesTotal.WithLabelValues(ev.Node, string(ev.Status)).Inc()
			m.nodeDuration.WithLabelValues(ev.Node).Observe(ev.Duration.Seconds())
		},
	}
}

// Chain merges hook sets so several observers can watch one engine. Each
// callback fires in the order given.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks

	merged.OnRunStart = func(ctx context.Context, ev *domain.RunEvent) {
		for _, s := range sets {
			if s.OnRunStart != nil {
				s.OnRunStart(ctx, ev)
			}
		}
	}
	merged.OnRunEnd = func(ctx context.Context, ev *domain.RunEvent) {
		for _, s := range sets {
			if s.OnRunEnd != nil {
				s.OnRunEnd(ctx, ev)
			}
		}
	}
	merged.OnNodeStart = func(ctx context.Context, ev *domain.NodeEvent) {
		for _, s := range sets {
			if s.OnNodeStart != nil {
				s.OnNodeStart(ctx, ev)
			}
		}
	}
	merged.OnNodeFinish = func(ctx context.Context, ev *domain.NodeEvent) {
		for _, s := range sets {
			if s.OnNodeFinish != nil {
				s.OnNodeFinish(ctx, ev)
			}
		}
	}
	return merged
}
