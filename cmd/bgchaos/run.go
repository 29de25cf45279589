package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/chaos"
	"github.com/bgricker/bgchaos/internal/compose"
	"github.com/bgricker/bgchaos/internal/config"
	"github.com/bgricker/bgchaos/internal/discovery"
	"github.com/bgricker/bgchaos/internal/logging"
	"github.com/bgricker/bgchaos/internal/metrics"
	"github.com/bgricker/bgchaos/internal/output"
	"github.com/bgricker/bgchaos/internal/probe"
	"github.com/bgricker/bgchaos/internal/report"
	"github.com/bgricker/bgchaos/internal/runner"
	"github.com/bgricker/bgchaos/internal/tracing"
	"github.com/bgricker/bgchaos/internal/version"
)

var errScenariosFailed = errors.New("one or more scenarios failed")

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the chaos scenarios against the local stack",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		Service:  cfg.Tracing.ServiceName,
	}, cmd.ErrOrStderr())
	defer func() { _ = log.Sync() }()

	scenarios, err := chaos.Select(chaos.Catalogue(), cfg.Only, cfg.Skip)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching scenarios")
		return nil
	}

	files, err := composeFiles(root, cfg, log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if !cfg.DryRun {
		preflight(ctx, cfg, log, cmd.ErrOrStderr())
	}

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: buildVersion,
		Endpoint:       cfg.Tracing.Endpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("trace shutdown failed", zap.Error(err))
		}
	}()

	var recorder *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewRecorder()
	}

	// Streamed orchestrator output must not interleave with a JSON document.
	commandOut := cmd.OutOrStdout()
	if cfg.Format == config.FormatJSON {
		commandOut = cmd.ErrOrStderr()
	}
	execRunner := runner.New(runner.Options{
		Shell:   cfg.Compose.Shell,
		Stdout:  commandOut,
		Stderr:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		DryRun:  cfg.DryRun,
		Timeout: cfg.Timeouts.Command,
		Logger:  log,
	})
	orchestrator := compose.New(execRunner, compose.Options{
		Command: cfg.Compose.Command,
		Files:   files,
		Logger:  log,
	})
	prober := probe.New(probe.Options{
		Endpoint:   cfg.Endpoint,
		PoolHeader: cfg.PoolHeader,
		Logger:     log,
	})

	var (
		observer chaos.Observer
		pretty   *output.PrettyRenderer
		jsonOut  *output.JSONRenderer
	)
	switch cfg.Format {
	case config.FormatJSON:
		jsonOut = output.NewJSON(cmd.OutOrStdout())
		observer = jsonOut
	default:
		pretty = output.NewPretty(cmd.OutOrStdout(), cfg.Verbose)
		if err := pretty.RenderHeader(); err != nil {
			return err
		}
		observer = pretty
	}

	suite := chaos.NewSuite(chaos.Options{
		Prober:       prober,
		Orchestrator: orchestrator,
		Settings:     chaos.SettingsFromConfig(cfg),
		Observer:     observer,
		Logger:       log,
		Metrics:      recorder,
		Tracer:       tp.Tracer(),
	})
	results, summary := suite.Run(ctx, scenarios)

	if err := render(pretty, jsonOut, cfg, results, summary); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("metrics not written", zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	if summary.ExitCode != 0 {
		return errScenariosFailed
	}
	return nil
}

func render(pretty *output.PrettyRenderer, jsonOut *output.JSONRenderer, cfg config.Config, results []report.ScenarioResult, summary report.Summary) error {
	if jsonOut != nil {
		return jsonOut.Render(output.Report{
			RunID:     summary.RunID,
			Endpoint:  cfg.Endpoint,
			DryRun:    cfg.DryRun,
			Scenarios: results,
			Summary:   summary,
		})
	}
	return pretty.RenderSummary(results, summary)
}

// composeFiles returns the files to pass with -f. Auto-detected files are
// only reported; compose finds them on its own.
func composeFiles(root string, cfg config.Config, log *zap.Logger, stderr io.Writer) ([]string, error) {
	files, err := discovery.ComposeFiles(root, cfg.Compose.Files)
	switch {
	case errors.Is(err, discovery.ErrNoComposeFile):
		log.Warn("no compose file found", zap.String("root", root))
		fmt.Fprintf(stderr, "warning: no compose file found in %s\n", root)
		return nil, nil
	case err != nil:
		return nil, err
	}
	if len(cfg.Compose.Files) == 0 {
		log.Debug("compose project detected", zap.Strings("files", files))
		return nil, nil
	}
	return files, nil
}

// preflight warns about a missing or outdated orchestrator. It never stops
// the run; every scenario reports its own orchestrator failures.
func preflight(ctx context.Context, cfg config.Config, log *zap.Logger, stderr io.Writer) {
	info, err := version.DetectCompose(ctx, cfg.Compose.Command)
	switch {
	case version.Missing(err):
		log.Warn("orchestrator not installed", zap.String("command", cfg.Compose.Command), zap.Error(err))
		fmt.Fprintf(stderr, "warning: %q not found on PATH\n", strings.Fields(cfg.Compose.Command)[0])
	case err != nil:
		log.Warn("orchestrator version check failed", zap.String("command", cfg.Compose.Command), zap.Error(err))
	case !version.AtLeast(version.MinimumCompose, info.Version):
		log.Warn("orchestrator is older than supported",
			zap.String("version", info.Version),
			zap.String("minimum", version.MinimumCompose),
		)
		fmt.Fprintf(stderr, "warning: compose %s is older than %s\n", info.Version, version.MinimumCompose)
	default:
		log.Debug("orchestrator detected", zap.String("version", info.Version))
	}
}
