// Package telemetry records node metrics from flow lifecycle events.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/pocketflow"
)

// Outcomes of a node run.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Observer is a pocketflow.Observer backed by Prometheus collectors.
type Observer struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	retries   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ pocketflow.Observer = (*Observer)(nil)

// NewObserver creates an Observer with its own registry. Metric names are
// prefixed with namespace.
func NewObserver(namespace string) *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_runs_total",
				Help:      "Total number of node runs by outcome",
			},
			[]string{"node", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_retries_total",
				Help:      "Total number of retried exec attempts",
			},
			[]string{"node"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_fallbacks_total",
				Help:      "Total number of fallback invocations",
			},
			[]string{"node"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Duration of node runs",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"node"},
		),
	}
	o.registry.MustRegister(o.runs, o.retries, o.fallbacks, o.duration)
	return o
}

// Registry returns the registry holding the node metrics.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) NodeStarted(context.Context, string) {}

func (o *Observer) NodeFinished(_ context.Context, node string, _ pocketflow.Action, d time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	o.runs.WithLabelValues(node, outcome).Inc()
	o.duration.WithLabelValues(node).Observe(d.Seconds())
}

func (o *Observer) Retried(_ context.Context, node string, _ int, _ error) {
	o.retries.WithLabelValues(node).Inc()
}

func (o *Observer) FellBack(_ context.Context, node string, _ error) {
	o.fallbacks.WithLabelValues(node).Inc()
}

// WriteFile writes the metrics to path in the Prometheus text format,
// for the node exporter's textfile collector.
func (o *Observer) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, o.registry)
}
