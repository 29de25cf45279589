package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/bgchaos/internal/report"
)

type recordingExecutor struct {
	commands []string
	outcome  report.CommandOutcome
}

func (r *recordingExecutor) Run(_ context.Context, command string) report.CommandOutcome {
	r.commands = append(r.commands, command)
	out := r.outcome
	out.Command = command
	return out
}

func TestStopAndStartCommands(t *testing.T) {
	exec := &recordingExecutor{outcome: report.CommandOutcome{Success: true}}
	c := New(exec, Options{})

	stop := c.Stop(context.Background(), "app_blue")
	start := c.Start(context.Background(), "app_blue", "app_green")

	assert.True(t, stop.Success)
	assert.True(t, start.Success)
	require.Len(t, exec.commands, 2)
	assert.Equal(t, "docker compose stop app_blue", exec.commands[0])
	assert.Equal(t, "docker compose start app_blue app_green", exec.commands[1])
}

func TestCommandWithFilesAndCustomBinary(t *testing.T) {
	c := New(&recordingExecutor{}, Options{
		Command: "podman compose",
		Files:   []string{"deploy/compose.yml", "my stack.yml"},
	})

	got := c.Command("stop", "web_blue")
	assert.Equal(t, "podman compose -f deploy/compose.yml -f 'my stack.yml' stop web_blue", got)
}

func TestFailedOutcomePassesThrough(t *testing.T) {
	exec := &recordingExecutor{outcome: report.CommandOutcome{Success: false, ExitCode: 1, Stderr: "no such service"}}
	c := New(exec, Options{})

	out := c.Stop(context.Background(), "app_blue")
	assert.False(t, out.Success)
	assert.Equal(t, "no such service", out.Stderr)
	assert.Equal(t, "docker compose stop app_blue", out.Command)
}

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"compose.yml":    "compose.yml",
		"":               "''",
		"a b":            "'a b'",
		"it's":           `'it'"'"'s'`,
		"/srv/app/c.yml": "/srv/app/c.yml",
	}
	for in, want := range cases {
		assert.Equal(t, want, shellQuote(in), "shellQuote(%q)", in)
	}
}
