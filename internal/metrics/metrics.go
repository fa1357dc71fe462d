// Package metrics exposes command and fit change counters in Prometheus
// format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpungsan/loadout/internal/events"
)

// Recorder owns a private registry so tests and multiple workbenches do not
// collide on the global one.
type Recorder struct {
	reg *prometheus.Registry

	// commands counts command executions.
	// Labels: command (display name), action (do, undo, redo), applied (true, false)
	commands *prometheus.CounterVec

	// duration measures the time a command holds the workbench.
	// Labels: action
	duration *prometheus.HistogramVec

	// fitChanges counts FitChanged notifications.
	fitChanges prometheus.Counter
}

// New returns a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadout",
			Name:      "commands_total",
			Help:      "Fit commands by name, action and outcome",
		}, []string{"command", "action", "applied"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loadout",
			Name:      "command_duration_seconds",
			Help:      "Fit command latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"action"}),
		fitChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loadout",
			Name:      "fit_changes_total",
			Help:      "Committed fit change notifications",
		}),
	}
	r.reg.MustRegister(
		r.commands,
		r.duration,
		r.fitChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveCommand records one command outcome.
func (r *Recorder) ObserveCommand(name, action string, applied bool, elapsed time.Duration) {
	r.commands.WithLabelValues(name, action, strconv.FormatBool(applied)).Inc()
	r.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// FitChanged counts a change notification. It has the signature of an
// events.Bus subscriber.
func (r *Recorder) FitChanged(events.FitChanged) {
	r.fitChanges.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
