package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"transmile/internal/build"
	"transmile/internal/config"
	domainerrors "transmile/internal/core/errors"
	"transmile/internal/core/ports"
	"transmile/internal/history"
	"transmile/internal/language"
	"transmile/internal/output"
	"transmile/internal/parser"
	"transmile/internal/resolver"
	"transmile/internal/shared/observability"
	"transmile/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Update is delivered to the update handler after every pass.
type Update struct {
	Report  *Report
	Changed []string
	Err     error
}

type App struct {
	Config   *config.Config
	exts     *language.Registry
	resolver *resolver.Resolver
	ignore   *util.NameMatcher
	recorder ports.RunRecorder
	journal  string

	runMu      sync.Mutex
	reportMu   sync.RWMutex
	lastReport *Report

	updateMu sync.RWMutex
	onUpdate func(Update)
}

type Option func(*App)

// WithHistory records every pass in rec.
func WithHistory(rec ports.RunRecorder) Option {
	return func(a *App) {
		a.recorder = rec
	}
}

// WithSearch replaces the search roots derived from the environment.
func WithSearch(search resolver.SearchConfig) Option {
	return func(a *App) {
		a.resolver = resolver.NewResolver(search, a.exts)
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	ignore, err := util.NewNameMatcher(cfg.IgnorePatterns())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "invalid ignore pattern")
	}

	exts := language.Default()
	search := resolver.SearchConfigFromEnv(cfg.Source, cfg.Search.ModuleVar, cfg.Search.GenericVar, cfg.Search.Extra, os.LookupEnv)

	a := &App{
		Config:   cfg,
		exts:     exts,
		resolver: resolver.NewResolver(search, exts),
		ignore:   ignore,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.journal = a.journalPath()
	return a, nil
}

// journalPath is the absolute path of the run journal, empty when passes are
// not recorded to a file.
func (a *App) journalPath() string {
	var p string
	if s, ok := a.recorder.(interface{ Path() string }); ok {
		p = s.Path()
	} else if a.Config.History.Enabled {
		p = a.Config.History.Path
	}
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	return abs
}

// isJournal matches the journal database and its -wal, -shm and -journal
// companions.
func (a *App) isJournal(path string) bool {
	if a.journal == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == a.journal || strings.HasPrefix(abs, a.journal+"-")
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// LastReport returns the report of the most recent completed pass.
func (a *App) LastReport() *Report {
	a.reportMu.RLock()
	defer a.reportMu.RUnlock()
	return a.lastReport
}

// Run walks the source tree once, transpiling or copying every stale file.
// Without keep-going the first failure aborts the pass; the partial report is
// returned together with the error.
func (a *App) Run(ctx context.Context) (*Report, error) {
	return a.run(ctx, history.TriggerBuild)
}

func (a *App) run(ctx context.Context, trigger string) (*Report, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "app.Run", trace.WithAttributes(
		attribute.String("source", a.Config.Source),
		attribute.String("trigger", trigger),
	))
	defer span.End()

	report := &Report{ID: uuid.NewString(), Trigger: trigger, StartedAt: time.Now().UTC()}
	err := a.walk(ctx, report)
	report.FinishedAt = time.Now().UTC()
	a.reportMu.Lock()
	a.lastReport = report
	a.reportMu.Unlock()

	observability.RunDuration.Observe(report.Duration().Seconds())
	observability.RunsTotal.WithLabelValues(report.outcome()).Inc()
	span.SetAttributes(
		attribute.Int("files.transpiled", report.Count(StatusTranspiled)),
		attribute.Int("files.failed", report.Count(StatusFailed)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	a.record(report)

	slog.Info("run finished",
		"id", report.ID,
		"transpiled", report.Count(StatusTranspiled),
		"copied", report.Count(StatusCopied),
		"fresh", report.Count(StatusFresh),
		"failed", report.Count(StatusFailed),
		"duration", report.Duration(),
	)
	return report, err
}

func (a *App) walk(ctx context.Context, report *Report) error {
	skipDirs := build.SkipDirs(func(name string) bool { return a.ignore.Match(name) })
	skipFiles := build.SkipFiles(a.isJournal)
	for entry, err := range build.Walk(a.Config.Source, a.Config.OutDir, skipDirs, skipFiles) {
		if err != nil {
			return fmt.Errorf("walk %s: %w", a.Config.Source, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		res := a.visit(ctx, entry)
		report.add(res)
		observability.FilesProcessedTotal.WithLabelValues(string(res.Status)).Inc()

		if res.Status == StatusFailed {
			slog.Error("file failed", "path", res.Path, "error", res.Err)
			if !a.Config.KeepGoing {
				return res.Err
			}
		}
	}
	return nil
}

func (a *App) visit(ctx context.Context, entry build.Entry) (res FileResult) {
	res.Path = entry.InputPath
	if a.ignore.Match(entry.Name) {
		res.Status = StatusIgnored
		return res
	}

	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	// Unknown suffixes are only acceptable when they are copied through.
	if !a.exts.Known(filepath.Ext(entry.Name)) && a.Config.CopyEnabled() {
		res.Status, res.Err = a.copyFile(entry)
		return res
	}
	s, err := a.exts.LookupPath(entry.InputPath)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !s.Transpiled() {
		res.Status, res.Err = a.copyFile(entry)
		return res
	}

	stale, err := build.NeedsTranspile(a.exts, entry.InputPath, entry.OutDir)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !stale {
		slog.Debug("up to date", "path", entry.InputPath)
		res.Status = StatusFresh
		return res
	}

	if err := a.ProcessFile(ctx, entry); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusTranspiled
	return res
}

func (a *App) copyFile(entry build.Entry) (Status, error) {
	if !a.Config.CopyEnabled() {
		return StatusSkipped, nil
	}

	dst := filepath.Join(entry.OutDir, entry.Name)
	stale, err := build.IsStale(entry.InputPath, dst)
	if err != nil {
		return StatusFailed, err
	}
	if !stale {
		return StatusFresh, nil
	}
	if err := util.CopyFile(entry.InputPath, dst); err != nil {
		return StatusFailed, fmt.Errorf("copy %s: %w", entry.InputPath, err)
	}
	slog.Debug("copied", "path", entry.InputPath, "to", dst)
	return StatusCopied, nil
}

// ProcessFile transpiles one directive-bearing file into its body and
// descriptor under entry.OutDir. Nothing is written when parsing or path
// resolution fails.
func (a *App) ProcessFile(ctx context.Context, entry build.Entry) (err error) {
	_, span := observability.Tracer.Start(ctx, "app.ProcessFile", trace.WithAttributes(
		attribute.String("path", entry.InputPath),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	defer func() {
		observability.TranspileDuration.WithLabelValues(filepath.Ext(entry.Name)).Observe(time.Since(start).Seconds())
	}()

	outs, err := build.OutputsFor(a.exts, entry.Name, entry.OutDir)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(entry.InputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", entry.InputPath, err)
	}

	parsed, err := parser.ParseContent(content)
	if err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, entry.InputPath)
	}

	resolved, err := a.resolver.ResolveFile(parsed)
	if err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, entry.InputPath)
	}

	relSource, err := relativeSource(entry.InputPath, entry.OutDir)
	if err != nil {
		return err
	}

	descriptor := output.RenderDescriptor(resolved, outs.Module, relSource)
	body := output.RenderSource(parsed.BodyLines, parsed.BodyStartLine, relSource)

	if err := util.WriteStringWithDirs(outs.Body, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outs.Body, err)
	}
	if err := util.WriteStringWithDirs(outs.Descriptor, descriptor, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outs.Descriptor, err)
	}

	slog.Info("transpiled", "path", entry.InputPath, "body", outs.Body, "descriptor", outs.Descriptor)
	return nil
}

// relativeSource is input relative to the directory its artifacts live in.
func relativeSource(input, outDir string) (string, error) {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absOut, absIn)
	if err != nil {
		return "", fmt.Errorf("relate %s to %s: %w", input, outDir, err)
	}
	return filepath.ToSlash(rel), nil
}

// HandleChanges is the watch callback: outputs of removed inputs are pruned,
// then a full pass runs and staleness limits the work to changed files.
func (a *App) HandleChanges(ctx context.Context, paths []string) {
	slog.Info("detected changes", "count", len(paths))

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.pruneOutputs(path)
		}
	}

	report, err := a.run(ctx, history.TriggerWatch)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
	}
	a.emitUpdate(Update{Report: report, Changed: paths, Err: err})
}

func (a *App) pruneOutputs(input string) {
	rel, err := filepath.Rel(a.Config.Source, input)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	outDir := filepath.Join(a.Config.OutDir, filepath.Dir(rel))
	name := filepath.Base(input)

	targets := []string{filepath.Join(outDir, name)}
	if outs, err := build.OutputsFor(a.exts, name, outDir); err == nil && outs.Descriptor != "" {
		targets = []string{outs.Body, outs.Descriptor}
	}
	for _, t := range targets {
		if err := os.Remove(t); err == nil {
			slog.Info("removed output of deleted input", "path", t)
		}
	}
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

func (a *App) record(report *Report) {
	if a.recorder == nil {
		return
	}
	run := report.Run(a.Config.Source, a.Config.OutDir)
	run.CommitHash = history.ResolveCommit(a.Config.Source)
	if _, err := a.recorder.SaveRun(run); err != nil {
		slog.Warn("failed to record run", "error", err)
	}
}
