package chaos

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/report"
)

// runErrorRate takes both pools down, fires a fixed number of probes so the
// proxy logs upstream errors, then restarts both pools and checks recovery.
// Only transport errors are counted; the count is reported, never asserted.
func runErrorRate(ctx context.Context, env *Env) report.ScenarioResult {
	var res report.ScenarioResult
	s := env.Settings

	env.Info("Stopping both containers to generate errors...")
	stop := env.Orchestrator.Stop(ctx, s.Blue, s.Green)
	if !stop.Success {
		env.Logger.Warn("stopping both pools failed, continuing",
			zap.Int("exit_code", stop.ExitCode),
			zap.String("stderr", stop.Stderr),
		)
		env.Warn("Failed to stop containers: %s", strings.TrimSpace(stop.Stderr))
	}

	errorCount := 0
	for i := 0; i < s.ErrorProbes; i++ {
		resp := env.Prober.Probe(ctx, s.ErrorProbeTimeout)
		if resp.Err != nil {
			errorCount++
		}
		_ = env.Sleep(ctx, s.ErrorInterval)
	}
	res.Attempts = s.ErrorProbes
	res.ErrorCount = &errorCount
	env.Info("Generated %d error requests", errorCount)

	env.Info("Restarting containers...")
	start := env.Orchestrator.Start(context.WithoutCancel(ctx), s.Blue, s.Green)
	if !start.Success {
		env.Logger.Warn("restarting both pools failed",
			zap.Int("exit_code", start.ExitCode),
			zap.String("stderr", start.Stderr),
		)
		env.Warn("Failed to restart containers: %s", strings.TrimSpace(start.Stderr))
	}
	_ = env.Sleep(ctx, s.Recovery)

	resp := env.Prober.Probe(ctx, s.ProbeTimeout)
	switch {
	case resp.Err != nil:
		res.Detail = fmt.Sprintf("Recovery failed: %v", resp.Err)
		env.Fail("%s", res.Detail)
	case resp.StatusCode != http.StatusOK:
		res.Detail = "Services did not recover properly"
		env.Logger.Debug("recovery probe returned non-200", zap.Int("status", resp.StatusCode))
		env.Fail("%s", res.Detail)
	default:
		res.Passed = true
		res.Pool = resp.Pool
		res.Detail = "Error rate test completed - Services recovered"
		env.Pass("%s", res.Detail)
	}
	return res
}
