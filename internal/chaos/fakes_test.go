package chaos

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/probe"
	"github.com/bgricker/bgchaos/internal/report"
)

// fakeProber replays scripted responses, repeating the last one when exhausted.
type fakeProber struct {
	mu        sync.Mutex
	responses []probe.Response
	timeouts  []time.Duration
}

func (f *fakeProber) Probe(_ context.Context, timeout time.Duration) probe.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, timeout)
	if len(f.responses) == 0 {
		return probe.Response{StatusCode: 200, Pool: "blue"}
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp
}

func (f *fakeProber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timeouts)
}

type fakeOrchestrator struct {
	mu       sync.Mutex
	stopFail bool
	startErr bool
	calls    []string
	ctxs     []context.Context
}

func (f *fakeOrchestrator) Stop(ctx context.Context, services ...string) report.CommandOutcome {
	return f.do(ctx, "stop", services, f.stopFail)
}

func (f *fakeOrchestrator) Start(ctx context.Context, services ...string) report.CommandOutcome {
	return f.do(ctx, "start", services, f.startErr)
}

func (f *fakeOrchestrator) do(ctx context.Context, action string, services []string, fail bool) report.CommandOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, action+" "+strings.Join(services, " "))
	f.ctxs = append(f.ctxs, ctx)
	if fail {
		return report.CommandOutcome{Success: false, ExitCode: 1, Stderr: "no such service\n"}
	}
	return report.CommandOutcome{Success: true}
}

type recordedSleeps struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordedSleeps) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

type eventLog struct {
	mu     sync.Mutex
	events []report.Event
}

func (l *eventLog) Observe(e report.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func (l *eventLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Message)
	}
	return out
}

func testSettings() Settings {
	return Settings{
		Blue:              "app_blue",
		Green:             "app_green",
		ProbeTimeout:      5 * time.Second,
		ErrorProbeTimeout: 2 * time.Second,
		FailoverSettle:    2 * time.Second,
		Restart:           3 * time.Second,
		Recovery:          5 * time.Second,
		Between:           2 * time.Second,
		ErrorInterval:     500 * time.Millisecond,
		ErrorProbes:       10,
	}
}

func newTestEnv(p Prober, o Orchestrator, sl *recordedSleeps, events *eventLog) *Env {
	return &Env{
		Prober:       p,
		Orchestrator: o,
		Sleep:        sl.Sleep,
		Settings:     testSettings(),
		Logger:       zap.NewNop(),
		scenario:     "test",
		observer:     events,
	}
}
