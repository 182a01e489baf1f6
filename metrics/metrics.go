// Package metrics exposes Prometheus collectors for editing sessions and
// imports.
//
// Metrics include:
//   - command stack events (executed, undone, redone, cleared)
//   - undo history depth
//   - constraint violations in the current document
//   - import attempts by format and result
package metrics

import (
	"condec/diagram"
	"condec/editor"
	"condec/history"
	"condec/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "condec"

// Collector holds the condec metrics.
type Collector struct {
	// CommandEvents counts command stack transitions.
	// Labels: event (executed, undone, redone, cleared)
	CommandEvents *prometheus.CounterVec

	// HistoryDepth is the number of commands that can be undone.
	HistoryDepth prometheus.Gauge

	// Violations is the number of nodes whose constraint is violated.
	Violations prometheus.Gauge

	// Imports counts import attempts.
	// Labels: format, result (success, error)
	Imports *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		CommandEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "command_events_total",
				Help:      "Command stack transitions by event",
			},
			[]string{"event"},
		),
		HistoryDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_depth",
			Help:      "Number of commands that can be undone",
		}),
		Violations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "constraint_violations",
			Help:      "Activities whose cardinality or init constraint is violated",
		}),
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Import attempts by format and result",
			},
			[]string{"format", "result"},
		),
	}
}

// Listener returns a command stack listener that records events and the
// depth of stack.
func (c *Collector) Listener(stack *history.Stack) history.Listener {
	return func(event history.Event, _ history.Command) {
		c.CommandEvents.WithLabelValues(string(event)).Inc()
		c.HistoryDepth.Set(float64(stack.Index() + 1))
	}
}

// ObserveDiagram records the violation count of d.
func (c *Collector) ObserveDiagram(d *diagram.Diagram) {
	c.Violations.Set(float64(len(validation.Violations(d))))
}

// ObserveImport records one import attempt.
func (c *Collector) ObserveImport(format string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if format == "" {
		format = "unknown"
	}
	c.Imports.WithLabelValues(format, result).Inc()
}

// Attach feeds the collector from a session's command stack and returns a
// function that detaches it.
func (c *Collector) Attach(s *editor.Session) func() {
	c.ObserveDiagram(s.Diagram())
	return s.History().Subscribe(func(event history.Event, cmd history.Command) {
		c.Listener(s.History())(event, cmd)
		c.ObserveDiagram(s.Diagram())
	})
}
