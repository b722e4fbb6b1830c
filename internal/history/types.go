package history

import "time"

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"

	TriggerBuild = "build"
	TriggerWatch = "watch"
)

// Run is one recorded pass over a source tree.
type Run struct {
	ID         string
	Trigger    string
	CommitHash string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	OutDir     string

	Transpiled int
	Copied     int
	Fresh      int
	Skipped    int
	Ignored    int
	Failed     int

	Outcome string
	Files   []FileResult
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FileResult is the outcome for one input file within a run.
type FileResult struct {
	Path     string
	Status   string
	Error    string
	Duration time.Duration
}
