package chaos

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bgricker/bgchaos/internal/report"
)

func runBaseline(ctx context.Context, env *Env) report.ScenarioResult {
	var res report.ScenarioResult

	resp := env.Prober.Probe(ctx, env.Settings.ProbeTimeout)
	switch {
	case resp.Err != nil:
		res.Detail = fmt.Sprintf("Baseline test failed - Error: %v", resp.Err)
		env.Fail("%s", res.Detail)
	case resp.StatusCode != http.StatusOK:
		res.Detail = fmt.Sprintf("Baseline test failed - Status: %d", resp.StatusCode)
		env.Fail("%s", res.Detail)
	default:
		res.Passed = true
		res.Pool = resp.Pool
		res.Detail = fmt.Sprintf("Baseline test passed - Active pool: %s", resp.Pool)
		env.Pass("%s", res.Detail)
	}
	return res
}
