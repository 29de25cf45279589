package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "bgchaos"
)

// Probe outcome labels.
const (
	ProbeOK             = "ok"
	ProbeHTTPError      = "http_error"
	ProbeTransportError = "transport_error"
)

// Recorder holds the run metrics on a private registry so a run can be
// written to a node-exporter textfile without touching global state.
type Recorder struct {
	registry *prometheus.Registry

	scenariosTotal   *prometheus.CounterVec
	scenarioPassed   *prometheus.GaugeVec
	scenarioDuration *prometheus.GaugeVec
	probesTotal      *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	errorProbeErrors prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scenariosTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "scenarios_total",
			Help:      "Count of executed scenarios by result",
		}, []string{"run_id", "scenario", "result"}),
		scenarioPassed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "scenario_passed",
			Help:      "1 if the scenario passed in the last run, 0 otherwise",
		}, []string{"scenario"}),
		scenarioDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "scenario_duration_seconds",
			Help:      "Duration of the scenario in the last run",
		}, []string{"scenario"}),
		probesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "probes_total",
			Help:      "Count of HTTP probes by scenario and outcome",
		}, []string{"scenario", "outcome"}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "orchestrator_commands_total",
			Help:      "Count of orchestrator commands by action and result",
		}, []string{"action", "result"}),
		errorProbeErrors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "error_rate_transport_errors",
			Help:      "Transport errors observed while both pools were stopped",
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_success",
			Help:      "1 if every scenario of the last run passed",
		}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordScenario records the verdict and duration of one scenario.
func (r *Recorder) RecordScenario(runID, scenario string, passed bool, seconds float64) {
	result := "fail"
	value := 0.0
	if passed {
		result = "pass"
		value = 1
	}
	r.scenariosTotal.WithLabelValues(runID, scenario, result).Inc()
	r.scenarioPassed.WithLabelValues(scenario).Set(value)
	r.scenarioDuration.WithLabelValues(scenario).Set(seconds)
}

// RecordProbe counts a probe outcome.
func (r *Recorder) RecordProbe(scenario, outcome string) {
	r.probesTotal.WithLabelValues(scenario, outcome).Inc()
}

// RecordCommand counts an orchestrator command.
func (r *Recorder) RecordCommand(action string, success bool) {
	result := "fail"
	if success {
		result = "success"
	}
	r.commandsTotal.WithLabelValues(action, result).Inc()
}

// RecordErrorProbes stores the error counter of the Error Rate scenario.
func (r *Recorder) RecordErrorProbes(errors int) {
	r.errorProbeErrors.Set(float64(errors))
}

// RecordRun stores the overall verdict of a run.
func (r *Recorder) RecordRun(passed bool, unixSeconds float64) {
	if passed {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	r.lastRunTimestamp.Set(unixSeconds)
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// suitable for the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
