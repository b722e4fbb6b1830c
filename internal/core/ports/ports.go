package ports

import "transmile/internal/history"

// RunRecorder persists the outcome of a pass over the source tree.
type RunRecorder interface {
	SaveRun(run history.Run) (string, error)
}

// RunHistory is a RunRecorder that can also list what it recorded.
type RunHistory interface {
	RunRecorder
	RecentRuns(limit int) ([]history.Run, error)
	RunFiles(runID string) ([]history.FileResult, error)
}

var _ RunHistory = (*history.Store)(nil)
