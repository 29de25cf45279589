package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/report"
)

// exitNotStarted is reported when the shell itself could not be launched.
const exitNotStarted = 127

// waitDelay bounds how long Run waits for output pipes after the command's
// context is done.
const waitDelay = time.Second

// Options configure how the runner executes commands.
type Options struct {
	Shell     string
	Stdout    io.Writer
	Stderr    io.Writer
	Verbose   bool
	DryRun    bool
	TailLines int
	Timeout   time.Duration
	Env       []string
	Now       func() time.Time
	Logger    *zap.Logger
}

// Runner executes orchestrator commands through the host shell.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Run executes command and reports its outcome. Run never fails: a command
// that cannot be started yields an unsuccessful outcome whose Stderr carries
// the reason.
func (r *Runner) Run(ctx context.Context, command string) report.CommandOutcome {
	outcome := report.CommandOutcome{Command: command, DryRun: r.opts.DryRun}
	log := r.opts.Logger.With(zap.String("command", command))

	if r.opts.DryRun {
		log.Info("dry run, command not executed")
		fmt.Fprintf(r.opts.Stdout, "[dry-run] %s\n", command)
		outcome.Success = true
		return outcome
	}

	start := r.opts.Now()
	err := r.run(ctx, command, &outcome)
	outcome.Duration = r.opts.Now().Sub(start)
	outcome.DurationMS = outcome.Duration.Milliseconds()

	if err != nil {
		outcome.Stdout = tailLines(outcome.Stdout, r.opts.TailLines)
		outcome.Stderr = tailLines(outcome.Stderr, r.opts.TailLines)
		log.Warn("command failed",
			zap.Int("exit_code", outcome.ExitCode),
			zap.Duration("duration", outcome.Duration),
			zap.String("stderr", outcome.Stderr),
		)
		return outcome
	}

	outcome.Success = true
	log.Debug("command succeeded", zap.Duration("duration", outcome.Duration))
	return outcome
}

func (r *Runner) run(ctx context.Context, command string, outcome *report.CommandOutcome) error {
	cmdArgs, err := commandArgs(r.opts.Shell, command)
	if err != nil {
		outcome.Stderr = err.Error()
		outcome.ExitCode = exitNotStarted
		return err
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Env = r.opts.Env
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	var stdoutBuf, stderrBuf strings.Builder
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err = cmd.Run()
	outcome.Stdout = stdoutBuf.String()
	outcome.Stderr = stderrBuf.String()
	outcome.ExitCode = exitCode(err)

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			outcome.Stderr = strings.TrimSpace(outcome.Stderr + "\n" + ctx.Err().Error())
			if !errors.As(err, &exitErr) {
				outcome.ExitCode = -1
			}
		case !errors.As(err, &exitErr):
			// The shell never ran; surface the launch error itself.
			outcome.Stderr = err.Error()
			outcome.ExitCode = exitNotStarted
		}
		return err
	}
	return nil
}

func commandArgs(shellSpec string, script string) ([]string, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("empty command")
	}
	shellSpec = strings.TrimSpace(shellSpec)
	if shellSpec == "" {
		if runtime.GOOS == "windows" {
			return []string{"cmd", "/C", script}, nil
		}
		return []string{"/bin/sh", "-c", script}, nil
	}

	fields := strings.Fields(shellSpec)
	shell := fields[0]
	args := append([]string{}, fields[1:]...)
	base := strings.ToLower(filepath.Base(shell))

	switch base {
	case "sh", "bash", "zsh", "ksh", "dash":
		args = append(args, "-c", script)
	case "cmd", "cmd.exe":
		args = append(args, "/C", script)
	case "pwsh", "powershell", "powershell.exe":
		args = append(args, "-Command", script)
	default:
		return nil, fmt.Errorf("unsupported shell %q", shellSpec)
	}
	return append([]string{shell}, args...), nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
