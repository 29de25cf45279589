package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/bgricker/bgchaos/internal/chaos"
	"github.com/bgricker/bgchaos/internal/report"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer

	mu     sync.Mutex
	events []report.Event
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	RunID     string                  `json:"run_id"`
	Endpoint  string                  `json:"endpoint"`
	DryRun    bool                    `json:"dry_run,omitempty"`
	Scenarios []report.ScenarioResult `json:"scenarios"`
	Events    []report.Event          `json:"events,omitempty"`
	Summary   report.Summary          `json:"summary"`
}

// Observe buffers progress events so they can be emitted with the report.
func (j *JSONRenderer) Observe(e report.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

// Events returns the events observed so far.
func (j *JSONRenderer) Events() []report.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]report.Event(nil), j.events...)
}

// Render encodes the report as JSON. Buffered events are attached when the
// report carries none of its own.
func (j *JSONRenderer) Render(rep Report) error {
	if rep.Events == nil {
		rep.Events = j.Events()
	}
	if rep.Scenarios == nil {
		rep.Scenarios = []report.ScenarioResult{}
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ListEntry is one scenario in the JSON list output.
type ListEntry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RenderList encodes the scenario catalogue as JSON.
func (j *JSONRenderer) RenderList(scenarios []chaos.Scenario) error {
	entries := make([]ListEntry, 0, len(scenarios))
	for _, sc := range scenarios {
		entries = append(entries, ListEntry{Key: sc.Key, Name: sc.Name, Description: sc.Description})
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Scenarios []ListEntry `json:"scenarios"`
	}{Scenarios: entries})
}
