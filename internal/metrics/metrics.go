// Package metrics exposes Prometheus instrumentation for backtest runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Metrics holds all Prometheus metrics of the engine.
type Metrics struct {
	// Runs counts finished runs. labels: mode, status=ok|error|aborted
	Runs *prometheus.CounterVec
	// Steps counts synchronization steps.
	Steps prometheus.Counter
	// NodeEvaluations counts node dispatches. labels: mode
	NodeEvaluations *prometheus.CounterVec
	FlaggedNodes    prometheus.Counter
	RunDuration     prometheus.Histogram
}

// NewMetrics creates the metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total backtest runs by mode and outcome",
		}, []string{"mode", "status"}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_steps_total",
			Help: "Total synchronization steps",
		}),
		NodeEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_node_evaluations_total",
			Help: "Node dispatches by execution mode",
		}, []string{"mode"}),
		FlaggedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_flagged_nodes_total",
			Help: "Nodes whose warm-up exceeds the available data",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall time of a backtest run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.Runs, m.Steps, m.NodeEvaluations, m.FlaggedNodes, m.RunDuration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to register metrics", err)
		}
	}

	return m, nil
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(mode, status string, d time.Duration) {
	if m == nil {
		return
	}

	m.Runs.WithLabelValues(mode, status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// AddEvaluations records n node dispatches in mode.
func (m *Metrics) AddEvaluations(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}

	m.NodeEvaluations.WithLabelValues(mode).Add(float64(n))
}

// Step records one synchronization step.
func (m *Metrics) Step() {
	if m == nil {
		return
	}

	m.Steps.Inc()
}

// Flagged records n flagged nodes.
func (m *Metrics) Flagged(n int) {
	if m == nil || n <= 0 {
		return
	}

	m.FlaggedNodes.Add(float64(n))
}
