package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// SearchConfig is the ordered list of roots probed for non-relative imports.
// SourceRoot is always the first root.
type SearchConfig struct {
	SourceRoot string
	Roots      []string
}

// NewSearchConfig returns a config that probes sourceRoot and then every
// directory of each list, in order. Duplicates are kept.
func NewSearchConfig(sourceRoot string, lists ...[]string) SearchConfig {
	root := filepath.Clean(sourceRoot)
	cfg := SearchConfig{SourceRoot: root, Roots: []string{root}}
	for _, list := range lists {
		for _, dir := range list {
			cfg.Roots = append(cfg.Roots, filepath.Clean(dir))
		}
	}
	return cfg
}

// SearchConfigFromEnv builds the search order: source root, the module search
// variable, extra configured roots, then the generic search variable.
func SearchConfigFromEnv(sourceRoot, moduleVar, genericVar string, extra []string, lookup func(string) (string, bool)) SearchConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var moduleDirs, genericDirs []string
	if v, ok := lookup(moduleVar); ok && moduleVar != "" {
		moduleDirs = SplitList(v)
	}
	if v, ok := lookup(genericVar); ok && genericVar != "" {
		genericDirs = SplitList(v)
	}
	return NewSearchConfig(sourceRoot, moduleDirs, extra, genericDirs)
}

// SplitList splits a list joined with os.PathListSeparator, dropping empty items.
func SplitList(v string) []string {
	var dirs []string
	for _, dir := range filepath.SplitList(v) {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
