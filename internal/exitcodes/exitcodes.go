// Package exitcodes defines the process exit codes used by bgchaos.
package exitcodes

// * Success (0): every selected scenario passed
// * ScenarioFailure (1): one or more scenarios failed
// * RuntimeErr (2): the run could not start (bad config, bad flags)
const (
	Success         = 0
	ScenarioFailure = 1
	RuntimeErr      = 2
)
