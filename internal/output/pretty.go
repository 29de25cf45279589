package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bgricker/bgchaos/internal/chaos"
	"github.com/bgricker/bgchaos/internal/report"
)

const rule = "=================================================="

// PrettyRenderer prints human-readable progress lines as scenarios run and
// a summary at the end.
type PrettyRenderer struct {
	out     io.Writer
	verbose bool

	mu      sync.Mutex
	started bool
}

// NewPretty creates a PrettyRenderer writing to the provided writer. In
// verbose mode the summary is followed by a per-scenario table.
func NewPretty(out io.Writer, verbose bool) *PrettyRenderer {
	return &PrettyRenderer{out: out, verbose: verbose}
}

// RenderHeader prints the run banner.
func (p *PrettyRenderer) RenderHeader() error {
	_, err := fmt.Fprintf(p.out, "🚀 Starting Blue/Green Chaos Testing\n%s\n", rule)
	return err
}

// Observe prints one progress event. It satisfies chaos.Observer.
func (p *PrettyRenderer) Observe(e report.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case report.EventStart:
		if p.started {
			fmt.Fprintln(p.out)
		}
		p.started = true
		fmt.Fprintln(p.out, e.Message)
	case report.EventPass:
		fmt.Fprintf(p.out, "✅ %s\n", e.Message)
	case report.EventFail:
		fmt.Fprintf(p.out, "❌ %s\n", e.Message)
	case report.EventWarn:
		fmt.Fprintf(p.out, "⚠️  %s\n", e.Message)
	default:
		fmt.Fprintln(p.out, e.Message)
	}
}

// RenderSummary prints the per-scenario verdicts and the closing message.
func (p *PrettyRenderer) RenderSummary(results []report.ScenarioResult, summary report.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	b.WriteString("📊 Test Results Summary:\n")
	for _, res := range results {
		status := "✅ PASSED"
		if !res.Passed {
			status = "❌ FAILED"
		}
		fmt.Fprintf(&b, "  %s: %s\n", res.Name, status)
	}

	if p.verbose {
		b.WriteString("\n")
		b.WriteString(resultsTable(results, summary))
	}

	if summary.Failed == 0 {
		b.WriteString("\n🎉 All tests passed! Check Slack for alerts.\n")
	} else {
		b.WriteString("\n⚠️  Some tests failed. Check logs and configuration.\n")
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

// RenderList prints the scenarios that would run, in order.
func (p *PrettyRenderer) RenderList(scenarios []chaos.Scenario) error {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"#", "KEY", "NAME", "DESCRIPTION"})
	for i, sc := range scenarios {
		t.AppendRow(table.Row{i + 1, sc.Key, sc.Name, sc.Description})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func resultsTable(results []report.ScenarioResult, summary report.Summary) string {
	var buf strings.Builder

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle("Run %s", summary.RunID)
	t.AppendHeader(table.Row{"SCENARIO", "RESULT", "POOL", "ERRORS", "DURATION", "DETAIL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ERRORS", Align: text.AlignRight},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "DETAIL", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, res := range results {
		result := "PASS"
		if !res.Passed {
			result = "FAIL"
		}
		errors := ""
		if res.ErrorCount != nil {
			errors = fmt.Sprintf("%d/%d", *res.ErrorCount, res.Attempts)
		}
		t.AppendRow(table.Row{res.Name, result, res.Pool, errors, formatDuration(res.Duration), res.Detail})
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d/%d", summary.Passed, summary.Total),
		"",
		"",
		formatDuration(summary.Duration),
		"",
	})
	t.SetStyle(table.StyleLight)
	t.Render()
	return buf.String()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
