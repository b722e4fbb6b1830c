package summary

import (
	"errors"
	"testing"
	"time"

	coreapp "transmile/internal/app"
	"transmile/internal/history"

	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	start := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	report := &coreapp.Report{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(15 * time.Millisecond),
		Files: []coreapp.FileResult{
			{Path: "src/a.smlb", Status: coreapp.StatusTranspiled},
			{Path: "src/b.smlb", Status: coreapp.StatusFresh},
			{Path: "src/README.txt", Status: coreapp.StatusCopied},
		},
	}

	out := RenderReport(report)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1 transpiled, 1 copied, 1 fresh, 0 skipped, 0 ignored")
	assert.Contains(t, out, "no failures")

	report.Files = append(report.Files, coreapp.FileResult{
		Path:   "src/c.smlb",
		Status: coreapp.StatusFailed,
		Err:    errors.New("[MALFORMED_DIRECTIVE] unexpected import format"),
	})
	out = RenderReport(report)
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "src/c.smlb: [MALFORMED_DIRECTIVE] unexpected import format")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "no runs recorded")

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []history.Run{
		{Trigger: history.TriggerWatch, CommitHash: "abc123", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + 20*time.Millisecond), Failed: 1, Outcome: history.OutcomeFailed},
		{Trigger: history.TriggerBuild, StartedAt: base, FinishedAt: base.Add(10 * time.Millisecond), Transpiled: 4, Outcome: history.OutcomeOK},
	}

	out := RenderHistory(runs)
	assert.Contains(t, out, "TRIGGER")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "2 runs, 50.00% failed, avg 15ms")
}
