package chaos

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bgricker/bgchaos/internal/report"
)

// runFailover stops blue, waits a fixed settle delay and expects the proxy to
// keep answering. Once blue has been stopped it is always restarted, whatever
// the probe returned.
func runFailover(ctx context.Context, env *Env) report.ScenarioResult {
	var res report.ScenarioResult
	s := env.Settings

	env.Info("Stopping blue container...")
	stop := env.Orchestrator.Stop(ctx, s.Blue)
	if !stop.Success {
		res.Detail = fmt.Sprintf("Failed to stop blue container: %s", strings.TrimSpace(stop.Stderr))
		env.Fail("%s", res.Detail)
		return res
	}
	defer restartBlue(ctx, env)

	_ = env.Sleep(ctx, s.FailoverSettle)

	resp := env.Prober.Probe(ctx, s.ProbeTimeout)
	switch {
	case resp.Err != nil:
		res.Detail = fmt.Sprintf("Failover test failed - Error: %v", resp.Err)
		env.Fail("%s", res.Detail)
	case resp.StatusCode != http.StatusOK:
		res.Detail = fmt.Sprintf("Failover failed - Status: %d", resp.StatusCode)
		env.Fail("%s", res.Detail)
	default:
		res.Passed = true
		res.Pool = resp.Pool
		res.Detail = fmt.Sprintf("Failover successful - Now serving from: %s", resp.Pool)
		env.Pass("%s", res.Detail)
	}
	return res
}

func restartBlue(ctx context.Context, env *Env) {
	s := env.Settings

	env.Info("Restarting blue container...")
	// Cleanup must run even when the run is being interrupted.
	start := env.Orchestrator.Start(context.WithoutCancel(ctx), s.Blue)
	if !start.Success {
		env.Logger.Warn("blue restart failed",
			zap.String("service", s.Blue),
			zap.Int("exit_code", start.ExitCode),
			zap.String("stderr", start.Stderr),
		)
		env.Warn("Failed to restart blue container: %s", strings.TrimSpace(start.Stderr))
	}
	_ = env.Sleep(ctx, s.Restart)
}
