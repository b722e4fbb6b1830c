package cliapp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transmile/internal/config"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_ShortFlags(t *testing.T) {
	opts, err := parseOptions([]string{"-d", "out", "-n", "-i", "a.txt,tmp", "-v", "src"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "out", opts.outDir)
	assert.True(t, opts.noCopyFiles)
	assert.Equal(t, "a.txt,tmp", opts.ignore)
	assert.True(t, opts.verbose)
	assert.Equal(t, []string{"src"}, opts.args)
	assert.False(t, opts.configExplicit)
	assert.Equal(t, config.DefaultPath, opts.configPath)
}

func TestParseOptions_UIImpliesWatch(t *testing.T) {
	opts, err := parseOptions([]string{"--ui", "--config", "x.toml"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.watch)
	assert.True(t, opts.configExplicit)
}

func TestParseOptions_HelpListsSuffixes(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseOptions([]string{"--help"}, &stderr)
	require.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, stderr.String(), "Recognized suffixes: .fun .funb .mlb .sig .sigb .sml .smlb")
}

func TestParseOptions_UnknownFlag(t *testing.T) {
	_, err := parseOptions([]string{"--bogus"}, io.Discard)
	assert.Error(t, err)
}

func TestApplyOptions_OverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Ignore = []string{"*.bak"}

	opts := &cliOptions{args: []string{"./src"}, outDir: "./out", noCopyFiles: true, ignore: "a, b ,", keepGoing: true}
	require.NoError(t, applyOptions(opts, cfg))

	assert.Equal(t, "./src", cfg.Source)
	assert.Equal(t, "./out", cfg.OutDir)
	assert.False(t, cfg.CopyEnabled())
	assert.Equal(t, []string{"*.bak", "a", "b"}, cfg.Ignore)
	assert.True(t, cfg.KeepGoing)
}

func TestApplyOptions_RejectsConflicts(t *testing.T) {
	cfg := config.Default()

	err := applyOptions(&cliOptions{copyFiles: true, noCopyFiles: true}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")

	err = applyOptions(&cliOptions{args: []string{"a", "b"}}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one source directory")
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))
}

func TestRun_BuildsTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	out := filepath.Join(root, "build")
	writeSource(t, filepath.Join(src, "main.smlb"), "val x = 1\n")
	writeSource(t, filepath.Join(src, "notes.sml"), "val n = 1\n")

	var stdout bytes.Buffer
	code := run([]string{"-d", out, "-n", src}, &stdout, io.Discard)
	require.Equal(t, 0, code, stdout.String())

	assert.FileExists(t, filepath.Join(out, "main.sml"))
	assert.FileExists(t, filepath.Join(out, "main.sml.mlb"))
	assert.NoFileExists(t, filepath.Join(out, "notes.sml"))
	assert.Contains(t, stdout.String(), "1 transpiled")
}

func TestRun_FailureExitCode(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeSource(t, filepath.Join(src, "bad.smlb"), "import nowhere.smlb\n(* +++ *)\n")

	code := run([]string{"-d", filepath.Join(root, "build"), src}, io.Discard, io.Discard)
	assert.Equal(t, 1, code)
}

func TestRun_KeepGoingStillFails(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeSource(t, filepath.Join(src, "bad.smlb"), "import nowhere.smlb\n(* +++ *)\n")
	writeSource(t, filepath.Join(src, "good.smlb"), "val ok = 1\n")

	var stdout bytes.Buffer
	code := run([]string{"--keep-going", "-d", filepath.Join(root, "build"), src}, &stdout, io.Discard)
	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(root, "build", "good.sml"))
	assert.Contains(t, stdout.String(), "1 failed")
}

func TestRun_MissingSourceIsConfigurationError(t *testing.T) {
	root := t.TempDir()
	code := run([]string{"-d", filepath.Join(root, "build"), filepath.Join(root, "missing")}, io.Discard, io.Discard)
	assert.Equal(t, 2, code)
}

func TestRun_ExplicitMissingConfig(t *testing.T) {
	code := run([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, io.Discard, io.Discard)
	assert.Equal(t, 2, code)
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	assert.Equal(t, 0, run([]string{"-V"}, &stdout, io.Discard))
	assert.True(t, strings.HasPrefix(stdout.String(), "transmile v"))
}

func TestRun_HistoryListing(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeSource(t, filepath.Join(src, "main.smlb"), "val x = 1\n")

	cfgPath := filepath.Join(root, "transmile.toml")
	dbPath := filepath.ToSlash(filepath.Join(root, "history.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[history]\nenabled = true\npath = \""+dbPath+"\"\n"), 0o644))

	require.Equal(t, 0, run([]string{"--config", cfgPath, "-d", filepath.Join(root, "build"), src}, io.Discard, io.Discard))

	var stdout bytes.Buffer
	require.Equal(t, 0, run([]string{"--config", cfgPath, "--history", "5"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "1 runs")
}

func TestResolveLogPath_PrefersXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "transmile", "transmile.log"), resolveLogPath())
}
