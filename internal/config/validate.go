package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	domainerrors "transmile/internal/core/errors"

	"github.com/gobwas/glob"
)

// Validate checks the directories of a run before any file is processed: the
// source must be a readable directory, the output directory is created if
// needed and must be writable, and every ignore pattern must compile.
func Validate(cfg *Config) error {
	if err := validateSource(cfg.Source); err != nil {
		return err
	}
	if err := validateOutDir(cfg.OutDir); err != nil {
		return err
	}
	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			return configError(err, fmt.Sprintf("invalid ignore pattern %q", pattern), "")
		}
	}
	if cfg.Watch.Debounce < 0 {
		return configError(nil, "watch debounce must not be negative", "")
	}
	return nil
}

func validateSource(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return configError(err, fmt.Sprintf("%s directory does not exist", dir), dir)
	}
	if !info.IsDir() {
		return configError(nil, fmt.Sprintf("%s is not a directory", dir), dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return configError(err, fmt.Sprintf("cannot read %s directory", dir), dir)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return configError(err, fmt.Sprintf("cannot read %s directory", dir), dir)
	}
	return nil
}

func validateOutDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return configError(err, fmt.Sprintf("cannot create %s directory", dir), dir)
	}
	probe, err := os.CreateTemp(dir, ".transmile-probe-*")
	if err != nil {
		return configError(err, fmt.Sprintf("cannot write to %s directory", dir), dir)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)
	return nil
}

func configError(err error, msg, path string) error {
	var de *domainerrors.DomainError
	if err != nil {
		de = domainerrors.Wrap(err, domainerrors.CodeConfiguration, msg)
	} else {
		de = domainerrors.New(domainerrors.CodeConfiguration, msg)
	}
	if path != "" {
		de.WithContext(domainerrors.CtxPath, filepath.Clean(path))
	}
	return de
}
