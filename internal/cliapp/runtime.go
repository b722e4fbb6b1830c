package cliapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	coreapp "transmile/internal/app"
	"transmile/internal/config"
	domainerrors "transmile/internal/core/errors"
	"transmile/internal/history"
	"transmile/internal/shared/observability"
	"transmile/internal/ui/monitor"
	"transmile/internal/ui/summary"
)

// Run executes the command line and returns the process exit code: 0 on
// success, 1 when a run fails, 2 on invalid usage or configuration.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "transmile v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(stdout, opts.ui, opts.verbose)
	defer cleanupLogs()

	cfg, err := config.LoadOrDefault(opts.configPath, opts.configExplicit)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return 2
	}
	config.ApplyEnvOverrides(cfg)

	if err := applyOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	if opts.history > 0 {
		return printHistory(stdout, cfg, opts.history)
	}

	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "code", domainerrors.CodeOf(err), "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(sctx)
		}()
	}

	var appOpts []coreapp.Option
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("run history unavailable", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
			appOpts = append(appOpts, coreapp.WithHistory(store))
		}
	}

	app, err := coreapp.New(cfg, appOpts...)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 2
	}

	report, runErr := app.Run(ctx)
	if !opts.ui {
		fmt.Fprint(stdout, summary.RenderReport(report))
	}

	if !opts.watch {
		if runErr != nil {
			slog.Error("run failed", "code", domainerrors.CodeOf(runErr), "error", runErr)
			return 1
		}
		if report.Err() != nil {
			return 1
		}
		return 0
	}

	return watch(ctx, stdout, app, report, opts.ui)
}

func watch(ctx context.Context, stdout io.Writer, app *coreapp.App, initial *coreapp.Report, uiMode bool) int {
	cfg := app.Config

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr, app.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
	}

	w, err := app.StartWatcher(ctx)
	if err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	defer w.Close()

	if uiMode {
		if err := monitor.Run(app, initial); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	app.SetUpdateHandler(func(update coreapp.Update) {
		if update.Report != nil {
			fmt.Fprint(stdout, summary.RenderReport(update.Report))
		}
	})
	slog.Info("watching for changes", "source", cfg.Source)
	<-ctx.Done()
	return 0
}

func printHistory(stdout io.Writer, cfg *config.Config, limit int) int {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Error("failed to open run history", "path", cfg.History.Path, "error", err)
		return 1
	}
	defer store.Close()

	runs, err := store.RecentRuns(limit)
	if err != nil {
		slog.Error("failed to load run history", "error", err)
		return 1
	}
	fmt.Fprint(stdout, summary.RenderHistory(runs))
	return 0
}

func configureLogging(stdout io.Writer, uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stdout
	var closeFn func() = func() {}
	if uiMode {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "transmile", "transmile.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "transmile", "transmile.log")
	}

	return "transmile.log"
}
