package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"transmile/internal/shared/observability"
	"transmile/internal/shared/util"
	"transmile/internal/watcher"
)

// StartWatcher watches the source tree and rebuilds on every debounced batch
// of changes. The watcher stops when ctx is cancelled; callers still Close it.
func (a *App) StartWatcher(ctx context.Context) (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce: a.Config.Watch.Debounce,
		Ignore:   a.ignore,
		Prune:    []string{a.Config.OutDir},
		SkipFile: a.isJournal,
		Limiter:  util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst),
	}, a.HandleChanges)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(ctx, []string{a.Config.Source}); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Health reports whether the source tree is reachable and how the last pass went.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if info, err := os.Stat(a.Config.Source); err != nil || !info.IsDir() {
		status.Status = "degraded"
		status.Components["source"] = "unreachable"
	} else {
		status.Components["source"] = "ok"
	}

	if a.recorder != nil {
		status.Components["history"] = "ok"
	} else if a.Config.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	if r := a.LastReport(); r != nil {
		status.Components["last_run"] = fmt.Sprintf("%s (%d transpiled, %d failed)", r.outcome(), r.Count(StatusTranspiled), r.Count(StatusFailed))
	} else {
		status.Components["last_run"] = "none"
	}

	return status
}
