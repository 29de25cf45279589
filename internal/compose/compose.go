// Package compose drives the container orchestrator that hosts the blue and
// green services.
package compose

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/report"
)

// Executor runs a shell command and reports its outcome without failing.
type Executor interface {
	Run(ctx context.Context, command string) report.CommandOutcome
}

// Options configure the compose client.
type Options struct {
	Command string   // e.g. "docker compose"
	Files   []string // passed as -f flags, in order
	Logger  *zap.Logger
}

// Client issues stop/start commands for compose services.
type Client struct {
	exec    Executor
	command string
	files   []string
	log     *zap.Logger
}

// New creates a compose client that runs commands through exec.
func New(exec Executor, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	command := strings.TrimSpace(opts.Command)
	if command == "" {
		command = "docker compose"
	}
	return &Client{
		exec:    exec,
		command: command,
		files:   append([]string{}, opts.Files...),
		log:     opts.Logger,
	}
}

// Stop stops the named services.
func (c *Client) Stop(ctx context.Context, services ...string) report.CommandOutcome {
	return c.do(ctx, "stop", services)
}

// Start starts the named services.
func (c *Client) Start(ctx context.Context, services ...string) report.CommandOutcome {
	return c.do(ctx, "start", services)
}

func (c *Client) do(ctx context.Context, action string, services []string) report.CommandOutcome {
	command := c.Command(action, services...)
	c.log.Debug("orchestrator command", zap.String("action", action), zap.Strings("services", services))
	return c.exec.Run(ctx, command)
}

// Command renders the shell command for action on services.
func (c *Client) Command(action string, services ...string) string {
	parts := []string{c.command}
	for _, f := range c.files {
		parts = append(parts, "-f", shellQuote(f))
	}
	parts = append(parts, action)
	parts = append(parts, services...)
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s unless it only holds characters the shell
// passes through untouched.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:@%+=,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
