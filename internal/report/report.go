package report

import "time"

// Event kinds emitted while scenarios run.
const (
	EventStart = "start"
	EventInfo  = "info"
	EventPass  = "pass"
	EventFail  = "fail"
	EventWarn  = "warn"
)

// CommandOutcome captures the result of a single orchestrator shell command.
type CommandOutcome struct {
	Command    string        `json:"command"`
	Success    bool          `json:"success"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	DryRun     bool          `json:"dry_run,omitempty"`
}

// ScenarioResult captures the outcome of a single scenario. ErrorCount is
// nil for scenarios that do not count errors.
type ScenarioResult struct {
	Key        string        `json:"key"`
	Name       string        `json:"name"`
	Passed     bool          `json:"passed"`
	Detail     string        `json:"detail,omitempty"`
	Pool       string        `json:"pool,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	ErrorCount *int          `json:"error_count,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Event is a progress message emitted by a running scenario.
type Event struct {
	Scenario string `json:"scenario"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Summary aggregates run results.
type Summary struct {
	RunID      string        `json:"run_id"`
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
}
