package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transmile/internal/language"
)

// Outputs are the artifact paths expected for one input file. Descriptor is
// empty for plain sources.
type Outputs struct {
	Body       string
	Descriptor string
	// Module is the body file name the descriptor refers to.
	Module string
}

// OutputsFor computes the artifacts of the input file name written to outDir.
// An unknown suffix fails before any file is touched.
func OutputsFor(exts *language.Registry, name, outDir string) (Outputs, error) {
	ext := filepath.Ext(name)
	s, err := exts.LookupPath(name)
	if err != nil {
		return Outputs{}, err
	}
	module := strings.TrimSuffix(name, ext) + s.Body
	out := Outputs{
		Body:   filepath.Join(outDir, module),
		Module: module,
	}
	if s.Transpiled() {
		out.Descriptor = filepath.Join(outDir, module+s.Descriptor)
	}
	return out, nil
}

// IsStale reports whether input must be regenerated: true unless every output
// exists and was modified strictly after input.
func IsStale(input string, outputs ...string) (bool, error) {
	in, err := os.Stat(input)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", input, err)
	}

	for _, out := range outputs {
		info, err := os.Stat(out)
		if err != nil || !info.Mode().IsRegular() {
			return true, nil
		}
		if !info.ModTime().After(in.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// NeedsTranspile applies IsStale to the outputs of a directive-bearing input.
func NeedsTranspile(exts *language.Registry, input, outDir string) (bool, error) {
	out, err := OutputsFor(exts, filepath.Base(input), outDir)
	if err != nil {
		return false, err
	}
	return IsStale(input, out.Body, out.Descriptor)
}
