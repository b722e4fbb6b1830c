package summary

import (
	"fmt"
	"strings"
	"time"

	coreapp "transmile/internal/app"
	"transmile/internal/history"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
)

// RenderReport formats the outcome of one pass for the terminal.
func RenderReport(report *coreapp.Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("transmile"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" %s in %v", report.ID, report.Duration().Round(time.Millisecond))))
	b.WriteString("\n")

	counts := []struct {
		label  string
		status coreapp.Status
	}{
		{"transpiled", coreapp.StatusTranspiled},
		{"copied", coreapp.StatusCopied},
		{"fresh", coreapp.StatusFresh},
		{"skipped", coreapp.StatusSkipped},
		{"ignored", coreapp.StatusIgnored},
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%d %s", report.Count(c.status), c.label))
	}
	b.WriteString("  " + strings.Join(parts, ", ") + "\n")

	failures := report.Failures()
	if len(failures) == 0 {
		b.WriteString("  " + successStyle.Render("no failures") + "\n")
		return b.String()
	}

	b.WriteString("  " + failedStyle.Render(fmt.Sprintf("%d failed", len(failures))) + "\n")
	for _, f := range failures {
		fmt.Fprintf(&b, "    %s: %v\n", f.Path, f.Err)
	}
	return b.String()
}

// RenderHistory formats recorded runs, newest first, followed by aggregate stats.
func RenderHistory(runs []history.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("no runs recorded") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("STARTED", "TRIGGER", "COMMIT", "BUILT", "COPIED", "FRESH", "FAILED", "DURATION", "OUTCOME").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 8 && row >= 0 && row < len(runs) && runs[row].Outcome == history.OutcomeFailed {
				return failedStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range runs {
		t.Row(
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Trigger,
			r.CommitHash,
			fmt.Sprint(r.Transpiled),
			fmt.Sprint(r.Copied),
			fmt.Sprint(r.Fresh),
			fmt.Sprint(r.Failed),
			r.Duration().Round(time.Millisecond).String(),
			r.Outcome,
		)
	}

	stats := history.Summarize(runs)
	footer := fmt.Sprintf("%d runs, %.2f%% failed, avg %v", stats.Runs, stats.FailureRate, stats.AvgDuration.Round(time.Millisecond))
	if !stats.LastSuccessAt.IsZero() {
		footer += ", last success " + stats.LastSuccessAt.Local().Format("2006-01-02 15:04:05")
	}

	return t.String() + "\n" + mutedStyle.Render(footer) + "\n"
}
