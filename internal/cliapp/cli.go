package cliapp

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"transmile/internal/config"
	"transmile/internal/language"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath     string
	configExplicit bool
	outDir         string
	copyFiles      bool
	noCopyFiles    bool
	ignore         string
	keepGoing      bool
	watch          bool
	ui             bool
	history        int
	verbose        bool
	version        bool
	args           []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := pflag.NewFlagSet("transmile", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: transmile [flags] [SRC]\n\n")
		fmt.Fprintf(stderr, "Transpile .smlb/.funb/.sigb files under SRC into SML sources and ML Basis descriptors.\n")
		fmt.Fprintf(stderr, "Recognized suffixes: %s\n\n", strings.Join(language.Default().Extensions(), " "))
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	fs.StringVarP(&opts.outDir, "out-dir", "d", "", "Output directory (default \"build\")")
	fs.BoolVarP(&opts.copyFiles, "copy-files", "c", false, "Copy files that are not transpiled to the output directory")
	fs.BoolVarP(&opts.noCopyFiles, "no-copy-files", "n", false, "Do not copy files that are not transpiled")
	fs.StringVarP(&opts.ignore, "ignore", "i", "", "Comma-separated file or directory name patterns to ignore")
	fs.BoolVar(&opts.keepGoing, "keep-going", false, "Record failing files and continue with the rest")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "Rebuild when files under SRC change")
	fs.BoolVar(&opts.ui, "ui", false, "Show the terminal monitor (implies --watch)")
	fs.IntVar(&opts.history, "history", 0, "Print the N most recent recorded runs and exit")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVarP(&opts.version, "version", "V", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.configExplicit = fs.Changed("config")
	opts.args = fs.Args()
	if opts.ui {
		opts.watch = true
	}
	return opts, nil
}

// applyOptions lets flags override the file and environment configuration.
func applyOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.copyFiles && opts.noCopyFiles {
		return fmt.Errorf("--copy-files and --no-copy-files cannot be used together")
	}
	if len(opts.args) > 1 {
		return fmt.Errorf("expected at most one source directory, got %d", len(opts.args))
	}
	if opts.history < 0 {
		return fmt.Errorf("--history must not be negative")
	}

	if len(opts.args) == 1 {
		cfg.Source = opts.args[0]
	}
	if opts.outDir != "" {
		cfg.OutDir = opts.outDir
	}
	switch {
	case opts.copyFiles:
		cfg.SetCopy(true)
	case opts.noCopyFiles:
		cfg.SetCopy(false)
	}
	if opts.ignore != "" {
		cfg.Ignore = append(cfg.Ignore, config.SplitCommaList(opts.ignore)...)
	}
	if opts.keepGoing {
		cfg.KeepGoing = true
	}
	return nil
}
