// Package chaos runs the blue/green failover scenarios: a baseline probe, a
// single-pool failover and a full outage followed by recovery.
//
// Every external call is fail-soft. Orchestrator commands return a
// report.CommandOutcome and probes return a probe.Response, so a scenario
// only ever decides pass or fail and the suite always reaches its summary.
package chaos

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/config"
	"github.com/bgricker/bgchaos/internal/filter"
	"github.com/bgricker/bgchaos/internal/probe"
	"github.com/bgricker/bgchaos/internal/report"
)

// Prober issues one timeout-bounded health-check request.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) probe.Response
}

// Orchestrator stops and starts compose services.
type Orchestrator interface {
	Stop(ctx context.Context, services ...string) report.CommandOutcome
	Start(ctx context.Context, services ...string) report.CommandOutcome
}

// Observer receives progress events as scenarios run.
type Observer interface {
	Observe(report.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(report.Event)

// Observe calls f.
func (f ObserverFunc) Observe(e report.Event) { f(e) }

// Settings are the fixed parameters of every scenario.
type Settings struct {
	Blue  string
	Green string

	ProbeTimeout      time.Duration
	ErrorProbeTimeout time.Duration

	FailoverSettle time.Duration
	Restart        time.Duration
	Recovery       time.Duration
	Between        time.Duration
	ErrorInterval  time.Duration

	ErrorProbes int
}

// SettingsFromConfig extracts scenario settings from the run configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Blue:              cfg.Compose.Blue,
		Green:             cfg.Compose.Green,
		ProbeTimeout:      cfg.Timeouts.Probe,
		ErrorProbeTimeout: cfg.Timeouts.ErrorProbe,
		FailoverSettle:    cfg.Delays.FailoverSettle,
		Restart:           cfg.Delays.Restart,
		Recovery:          cfg.Delays.Recovery,
		Between:           cfg.Delays.Between,
		ErrorInterval:     cfg.Delays.ErrorInterval,
		ErrorProbes:       cfg.ErrorProbes,
	}
}

// Env is what a scenario may touch while it runs.
type Env struct {
	Prober       Prober
	Orchestrator Orchestrator
	Sleep        Sleeper
	Settings     Settings
	Logger       *zap.Logger

	scenario string
	observer Observer
}

func (e *Env) emit(kind, msg string) {
	if e.observer == nil {
		return
	}
	e.observer.Observe(report.Event{Scenario: e.scenario, Kind: kind, Message: msg})
}

// Info reports a progress step.
func (e *Env) Info(format string, args ...any) { e.emit(report.EventInfo, fmt.Sprintf(format, args...)) }

// Pass reports a successful check.
func (e *Env) Pass(format string, args ...any) { e.emit(report.EventPass, fmt.Sprintf(format, args...)) }

// Fail reports a failed check.
func (e *Env) Fail(format string, args ...any) { e.emit(report.EventFail, fmt.Sprintf(format, args...)) }

// Warn reports a problem that does not change the verdict.
func (e *Env) Warn(format string, args ...any) { e.emit(report.EventWarn, fmt.Sprintf(format, args...)) }

// Scenario is one named check of the chaos run.
type Scenario struct {
	Key         string
	Name        string
	Banner      string
	Description string
	Run         func(ctx context.Context, env *Env) report.ScenarioResult
}

// Catalogue returns the scenarios in their fixed run order.
func Catalogue() []Scenario {
	return []Scenario{
		{
			Key:         "baseline",
			Name:        "Baseline",
			Banner:      "🧪 Testing baseline functionality...",
			Description: "probe the endpoint once and report the serving pool",
			Run:         runBaseline,
		},
		{
			Key:         "failover",
			Name:        "Failover",
			Banner:      "🔄 Testing failover scenario...",
			Description: "stop blue, probe after a fixed delay, restart blue",
			Run:         runFailover,
		},
		{
			Key:         "error-rate",
			Name:        "Error Rate",
			Banner:      "📈 Testing error rate alerts...",
			Description: "stop both pools, probe repeatedly, restart and verify recovery",
			Run:         runErrorRate,
		},
	}
}

// Select filters the catalogue by key or name, preserving run order.
func Select(scenarios []Scenario, only, skip []string) ([]Scenario, error) {
	onlyPatterns, err := filter.Compile(only)
	if err != nil {
		return nil, err
	}
	skipPatterns, err := filter.Compile(skip)
	if err != nil {
		return nil, err
	}
	labels := func(s Scenario) []string { return []string{s.Key, s.Name} }
	return filter.Select(scenarios, labels, onlyPatterns, skipPatterns), nil
}
