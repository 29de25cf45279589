package chaos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/exitcodes"
	"github.com/bgricker/bgchaos/internal/metrics"
	"github.com/bgricker/bgchaos/internal/probe"
	"github.com/bgricker/bgchaos/internal/report"
)

// Options configure a Suite.
type Options struct {
	Prober       Prober
	Orchestrator Orchestrator
	Sleep        Sleeper
	Settings     Settings
	Observer     Observer
	Logger       *zap.Logger
	Metrics      *metrics.Recorder
	Tracer       trace.Tracer
	Now          func() time.Time
	NewRunID     func() string
}

// Suite runs scenarios in order and aggregates their verdicts.
type Suite struct {
	opts Options
}

// NewSuite creates a Suite, filling in defaults for optional fields.
func NewSuite(opts Options) *Suite {
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("bgchaos")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Suite{opts: opts}
}

// Run executes scenarios strictly in order. A failing scenario never stops
// the run; only cancellation of ctx does, in which case the remaining
// scenarios are reported as failed without being started.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) ([]report.ScenarioResult, report.Summary) {
	runID := s.opts.NewRunID()
	log := s.opts.Logger.With(zap.String("run_id", runID))
	start := s.opts.Now()

	ctx, runSpan := s.opts.Tracer.Start(ctx, "chaos.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.scenarios", len(scenarios)),
	))
	defer runSpan.End()

	results := make([]report.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			log.Warn("scenario skipped", zap.String("scenario", sc.Key), zap.Error(err))
			results = append(results, s.skip(ctx, runID, sc))
			continue
		}

		res := s.runOne(ctx, log, runID, sc)
		results = append(results, res)

		_ = s.opts.Sleep(ctx, s.opts.Settings.Between)
	}

	summary := report.Summary{RunID: runID, Total: len(results)}
	for _, res := range results {
		if res.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	summary.Duration = s.opts.Now().Sub(start)
	summary.DurationMS = summary.Duration.Milliseconds()
	summary.ExitCode = exitcodes.Success
	if summary.Failed > 0 {
		summary.ExitCode = exitcodes.ScenarioFailure
		runSpan.SetStatus(codes.Error, fmt.Sprintf("%d of %d scenarios failed", summary.Failed, summary.Total))
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRun(summary.Failed == 0, float64(s.opts.Now().Unix()))
	}
	log.Info("run finished",
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return results, summary
}

func (s *Suite) runOne(ctx context.Context, log *zap.Logger, runID string, sc Scenario) (res report.ScenarioResult) {
	ctx, span := s.opts.Tracer.Start(ctx, "chaos.scenario", trace.WithAttributes(
		attribute.String("scenario.key", sc.Key),
		attribute.String("scenario.name", sc.Name),
	))
	log = log.With(zap.String("scenario", sc.Key))

	env := &Env{
		Prober:       &instrumentedProber{next: s.opts.Prober, scenario: sc.Key, metrics: s.opts.Metrics, span: span},
		Orchestrator: &instrumentedOrchestrator{next: s.opts.Orchestrator, metrics: s.opts.Metrics, span: span},
		Sleep:        s.opts.Sleep,
		Settings:     s.opts.Settings,
		Logger:       log,
		scenario:     sc.Key,
		observer:     s.opts.Observer,
	}
	env.emit(report.EventStart, sc.Banner)

	start := s.opts.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("scenario panicked", zap.Any("panic", r), zap.Stack("stack"))
			res = report.ScenarioResult{Detail: fmt.Sprintf("%s test failed - Error: %v", sc.Name, r)}
			env.Fail("%s", res.Detail)
		}
		res.Key = sc.Key
		res.Name = sc.Name
		res.Duration = s.opts.Now().Sub(start)
		res.DurationMS = res.Duration.Milliseconds()

		span.SetAttributes(attribute.Bool("scenario.passed", res.Passed))
		if res.Pool != "" {
			span.SetAttributes(attribute.String("scenario.pool", res.Pool))
		}
		if !res.Passed {
			span.SetStatus(codes.Error, res.Detail)
		}
		span.End()

		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordScenario(runID, sc.Key, res.Passed, res.Duration.Seconds())
			if res.ErrorCount != nil {
				s.opts.Metrics.RecordErrorProbes(*res.ErrorCount)
			}
		}
		log.Debug("scenario finished",
			zap.Bool("passed", res.Passed),
			zap.String("detail", res.Detail),
			zap.Duration("duration", res.Duration),
		)
	}()

	return sc.Run(ctx, env)
}

// skip records a scenario that was never started because the run was
// interrupted.
func (s *Suite) skip(ctx context.Context, runID string, sc Scenario) report.ScenarioResult {
	res := report.ScenarioResult{Key: sc.Key, Name: sc.Name, Detail: "interrupted"}

	_, span := s.opts.Tracer.Start(ctx, "chaos.scenario", trace.WithAttributes(
		attribute.String("scenario.key", sc.Key),
		attribute.String("scenario.name", sc.Name),
		attribute.Bool("scenario.passed", false),
		attribute.Bool("scenario.skipped", true),
	))
	span.SetStatus(codes.Error, res.Detail)
	span.End()

	if s.opts.Observer != nil {
		s.opts.Observer.Observe(report.Event{
			Scenario: sc.Key,
			Kind:     report.EventFail,
			Message:  fmt.Sprintf("%s skipped - interrupted", sc.Name),
		})
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordScenario(runID, sc.Key, false, 0)
	}
	return res
}

type instrumentedProber struct {
	next     Prober
	scenario string
	metrics  *metrics.Recorder
	span     trace.Span
}

func (p *instrumentedProber) Probe(ctx context.Context, timeout time.Duration) probe.Response {
	resp := p.next.Probe(ctx, timeout)

	outcome := metrics.ProbeOK
	attrs := []attribute.KeyValue{attribute.Int64("probe.duration_ms", resp.Duration.Milliseconds())}
	switch {
	case resp.Err != nil:
		outcome = metrics.ProbeTransportError
		attrs = append(attrs, attribute.String("probe.error", resp.Err.Error()))
	case !resp.OK():
		outcome = metrics.ProbeHTTPError
		attrs = append(attrs, attribute.Int("probe.status", resp.StatusCode))
	default:
		attrs = append(attrs, attribute.Int("probe.status", resp.StatusCode), attribute.String("probe.pool", resp.Pool))
	}
	attrs = append(attrs, attribute.String("probe.outcome", outcome))

	if p.metrics != nil {
		p.metrics.RecordProbe(p.scenario, outcome)
	}
	p.span.AddEvent("probe", trace.WithAttributes(attrs...))
	return resp
}

type instrumentedOrchestrator struct {
	next    Orchestrator
	metrics *metrics.Recorder
	span    trace.Span
}

func (o *instrumentedOrchestrator) Stop(ctx context.Context, services ...string) report.CommandOutcome {
	return o.record("stop", services, o.next.Stop(ctx, services...))
}

func (o *instrumentedOrchestrator) Start(ctx context.Context, services ...string) report.CommandOutcome {
	return o.record("start", services, o.next.Start(ctx, services...))
}

func (o *instrumentedOrchestrator) record(action string, services []string, out report.CommandOutcome) report.CommandOutcome {
	if o.metrics != nil {
		o.metrics.RecordCommand(action, out.Success)
	}
	o.span.AddEvent("compose."+action, trace.WithAttributes(
		attribute.String("compose.services", strings.Join(services, ",")),
		attribute.Bool("compose.success", out.Success),
		attribute.Int("compose.exit_code", out.ExitCode),
	))
	return out
}
