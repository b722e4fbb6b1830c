// # internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainerrors "transmile/internal/core/errors"
)

func TestLoad(t *testing.T) {
	content := `
source = "./src"
out_dir = "./out"
ignore = ["*.txt", "scratch"]
copy = false
keep_going = true

[search]
module_var = "MYSMLPATH"
extra = ["/opt/sml"]

[watch]
debounce = "1s"
rate = 5.0

[history]
enabled = true
path = "runs.db"

[observability]
metrics_addr = ":9464"
`
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source != "./src" || cfg.OutDir != "./out" {
		t.Errorf("Unexpected dirs: %s -> %s", cfg.Source, cfg.OutDir)
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[1] != "scratch" {
		t.Errorf("Unexpected Ignore: %v", cfg.Ignore)
	}
	if cfg.CopyEnabled() {
		t.Error("Expected copy to be disabled")
	}
	if !cfg.KeepGoing {
		t.Error("Expected keep_going")
	}
	if cfg.Search.ModuleVar != "MYSMLPATH" || cfg.Search.GenericVar != "PATH" {
		t.Errorf("Unexpected search vars: %+v", cfg.Search)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate != 5 || cfg.Watch.Burst != 1 {
		t.Errorf("Unexpected watch limits: %+v", cfg.Watch)
	}
	if !cfg.History.Enabled || cfg.History.Path != "runs.db" {
		t.Errorf("Unexpected history: %+v", cfg.History)
	}
	if cfg.Observability.MetricsAddr != ":9464" || cfg.Observability.ServiceName != "transmile" {
		t.Errorf("Unexpected observability: %+v", cfg.Observability)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Source != "." || cfg.OutDir != "build" {
		t.Errorf("Unexpected default dirs: %s -> %s", cfg.Source, cfg.OutDir)
	}
	if !cfg.CopyEnabled() {
		t.Error("Expected copy enabled by default")
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("Expected default debounce 300ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Search.ModuleVar != "SMLPATH" || cfg.Search.GenericVar != "PATH" {
		t.Errorf("Unexpected default search vars: %+v", cfg.Search)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}

	tmpfile, _ := os.CreateTemp("", "badconfig*.toml")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte("bad = toml = format"))
	tmpfile.Close()

	_, err = Load(tmpfile.Name())
	if err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "transmile.toml")

	cfg, err := LoadOrDefault(missing, false)
	if err != nil || cfg == nil {
		t.Fatalf("expected defaults for implicit missing config, got %v", err)
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRANSMILE_OUT_DIR", "/tmp/out")
	t.Setenv("TRANSMILE_IGNORE", "a.txt, ,b*")
	t.Setenv("TRANSMILE_COPY", "FALSE")
	t.Setenv("TRANSMILE_WATCH_DEBOUNCE", "2s")
	t.Setenv("TRANSMILE_WATCH_BURST", "not-a-number")
	t.Setenv("TRANSMILE_HISTORY_ENABLED", "true")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.OutDir != "/tmp/out" {
		t.Errorf("OutDir = %s", cfg.OutDir)
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[0] != "a.txt" || cfg.Ignore[1] != "b*" {
		t.Errorf("Ignore = %v", cfg.Ignore)
	}
	if cfg.CopyEnabled() {
		t.Error("expected copy disabled")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Burst != 1 {
		t.Errorf("invalid int override should be ignored, got %d", cfg.Watch.Burst)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled")
	}
}

func TestValidate(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Source = src
	cfg.OutDir = filepath.Join(tmp, "out", "nested")
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if info, err := os.Stat(cfg.OutDir); err != nil || !info.IsDir() {
		t.Error("expected output directory to be created")
	}

	cfg.Source = filepath.Join(tmp, "missing")
	if err := Validate(cfg); !domainerrors.IsCode(err, domainerrors.CodeConfiguration) {
		t.Errorf("expected configuration error for missing source, got %v", err)
	}

	file := filepath.Join(tmp, "file.smlb")
	os.WriteFile(file, nil, 0o644)
	cfg.Source = file
	if err := Validate(cfg); !domainerrors.IsCode(err, domainerrors.CodeConfiguration) {
		t.Errorf("expected configuration error for file source, got %v", err)
	}

	cfg.Source = src
	cfg.Ignore = []string{"[unclosed"}
	if err := Validate(cfg); !domainerrors.IsCode(err, domainerrors.CodeConfiguration) {
		t.Errorf("expected configuration error for bad pattern, got %v", err)
	}
}

func TestIgnorePatterns(t *testing.T) {
	cfg := Default()
	cfg.Ignore = []string{"*.tmp"}

	got := cfg.IgnorePatterns()
	want := []string{".git", ".transmile", "*.tmp"}
	if len(got) != len(want) {
		t.Fatalf("IgnorePatterns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IgnorePatterns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(DefaultIgnore) != 2 {
		t.Errorf("DefaultIgnore modified: %v", DefaultIgnore)
	}
}
