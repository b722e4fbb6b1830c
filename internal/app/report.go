package app

import (
	"errors"
	"time"

	"transmile/internal/history"
)

// Status is the outcome for one file of a run.
type Status string

const (
	StatusIgnored    Status = "ignored"
	StatusCopied     Status = "copied"
	StatusSkipped    Status = "skipped"
	StatusFresh      Status = "fresh"
	StatusTranspiled Status = "transpiled"
	StatusFailed     Status = "failed"
)

type FileResult struct {
	Path     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report collects the per-file outcomes of one pass over the source tree.
type Report struct {
	ID         string
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []FileResult
}

func (r *Report) add(res FileResult) {
	r.Files = append(r.Files, res)
}

// Count returns the number of files with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Failures() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			out = append(out, f)
		}
	}
	return out
}

// Err joins the errors of every failed file, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Failures() {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) outcome() string {
	if r.Count(StatusFailed) > 0 {
		return history.OutcomeFailed
	}
	return history.OutcomeOK
}

// Run converts the report into a journal record.
func (r *Report) Run(source, outDir string) history.Run {
	run := history.Run{
		ID:         r.ID,
		Trigger:    r.Trigger,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Source:     source,
		OutDir:     outDir,
		Transpiled: r.Count(StatusTranspiled),
		Copied:     r.Count(StatusCopied),
		Fresh:      r.Count(StatusFresh),
		Skipped:    r.Count(StatusSkipped),
		Ignored:    r.Count(StatusIgnored),
		Failed:     r.Count(StatusFailed),
		Outcome:    r.outcome(),
	}
	for _, f := range r.Files {
		fr := history.FileResult{Path: f.Path, Status: string(f.Status), Duration: f.Duration}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		run.Files = append(run.Files, fr)
	}
	return run
}
