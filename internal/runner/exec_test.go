package runner

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunnerDryRun(t *testing.T) {
	var stdout bytes.Buffer
	r := New(Options{DryRun: true, Stdout: &stdout})

	outcome := r.Run(context.Background(), "exit 9")
	if !outcome.Success || !outcome.DryRun {
		t.Fatalf("expected successful dry run, got %+v", outcome)
	}
	if outcome.Command != "exit 9" {
		t.Fatalf("expected command recorded, got %q", outcome.Command)
	}
	if got := stdout.String(); got != "[dry-run] exit 9\n" {
		t.Fatalf("expected dry-run notice, got %q", got)
	}
}

func TestRunnerExecSuccess(t *testing.T) {
	skipOnWindows(t)
	r := New(Options{})

	outcome := r.Run(context.Background(), "echo hi")
	if !outcome.Success || outcome.ExitCode != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if strings.TrimSpace(outcome.Stdout) != "hi" {
		t.Fatalf("expected stdout 'hi', got %q", outcome.Stdout)
	}
}

func TestRunnerExecFailure(t *testing.T) {
	skipOnWindows(t)
	r := New(Options{})

	outcome := r.Run(context.Background(), "echo nope >&2; exit 3")
	if outcome.Success {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if outcome.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", outcome.ExitCode)
	}
	if strings.TrimSpace(outcome.Stderr) != "nope" {
		t.Fatalf("expected stderr captured, got %q", outcome.Stderr)
	}
}

func TestRunnerMissingShellIsFailureOutcome(t *testing.T) {
	r := New(Options{Shell: "/nonexistent/bin/sh"})

	outcome := r.Run(context.Background(), "echo hi")
	if outcome.Success {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if outcome.ExitCode != exitNotStarted {
		t.Fatalf("expected exit code %d, got %d", exitNotStarted, outcome.ExitCode)
	}
	if outcome.Stderr == "" {
		t.Fatalf("expected launch error in stderr")
	}
}

func TestRunnerUnsupportedShell(t *testing.T) {
	r := New(Options{Shell: "python3"})

	outcome := r.Run(context.Background(), "print(1)")
	if outcome.Success || !strings.Contains(outcome.Stderr, "unsupported shell") {
		t.Fatalf("expected unsupported shell failure, got %+v", outcome)
	}
}

func TestRunnerTimeout(t *testing.T) {
	skipOnWindows(t)
	r := New(Options{Timeout: 100 * time.Millisecond})

	start := time.Now()
	outcome := r.Run(context.Background(), "sleep 5; echo done")
	elapsed := time.Since(start)
	if outcome.Success {
		t.Fatalf("expected timeout failure, got %+v", outcome)
	}
	if !strings.Contains(outcome.Stderr, "deadline exceeded") {
		t.Fatalf("expected deadline in stderr, got %q", outcome.Stderr)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("timed out command took %s to return", elapsed)
	}
	if strings.Contains(outcome.Stdout, "done") {
		t.Fatalf("command kept running after the timeout: %q", outcome.Stdout)
	}
}

func TestRunnerCancelledContextKillsChildren(t *testing.T) {
	skipOnWindows(t)
	r := New(Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome := r.Run(ctx, "sleep 5 & sleep 5; wait")
	elapsed := time.Since(start)
	if outcome.Success {
		t.Fatalf("expected cancelled command to fail, got %+v", outcome)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("cancelled command took %s to return", elapsed)
	}
	if !strings.Contains(outcome.Stderr, "deadline exceeded") {
		t.Fatalf("expected context error in stderr, got %q", outcome.Stderr)
	}
}

func TestRunnerTailCapture(t *testing.T) {
	skipOnWindows(t)
	r := New(Options{TailLines: 2})

	outcome := r.Run(context.Background(), "printf '1\n2\n3\n'; exit 1")
	if got := strings.TrimSpace(outcome.Stdout); got != "2\n3" {
		t.Fatalf("expected tail '2\\n3', got %q", got)
	}
}

func TestRunnerVerboseStreamsOutput(t *testing.T) {
	skipOnWindows(t)
	stdout := &bytes.Buffer{}
	r := New(Options{Verbose: true, Stdout: stdout})

	r.Run(context.Background(), "echo streamed")
	if !strings.Contains(stdout.String(), "streamed") {
		t.Fatalf("expected streamed output, got %q", stdout.String())
	}
}

func TestRunnerLogsFailures(t *testing.T) {
	skipOnWindows(t)
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(Options{Logger: zap.New(core)})

	r.Run(context.Background(), "exit 4")

	entries := logs.FilterMessage("command failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["exit_code"]; got != int64(4) {
		t.Fatalf("expected exit_code 4 logged, got %v", got)
	}
}

func TestCommandArgs(t *testing.T) {
	args, err := commandArgs("bash -e", "docker compose stop app_blue")
	if err != nil {
		t.Fatalf("commandArgs: %v", err)
	}
	want := []string{"bash", "-e", "-c", "docker compose stop app_blue"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Fatalf("commandArgs = %q, want %q", args, want)
	}

	if _, err := commandArgs("", "   "); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
