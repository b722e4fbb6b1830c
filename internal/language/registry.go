// # internal/language/registry.go
package language

import (
	"path/filepath"
	"sort"

	domainerrors "transmile/internal/core/errors"
)

// Suffixes names the artifacts produced for one input suffix. Descriptor is empty
// for plain sources that carry no directive block.
type Suffixes struct {
	Body       string
	Descriptor string
}

// Transpiled reports whether inputs with this suffix carry a directive block.
func (s Suffixes) Transpiled() bool {
	return s.Descriptor != ""
}

// Registry is the fixed input suffix table. It is never mutated after construction.
type Registry struct {
	table map[string]Suffixes
}

var defaultRegistry = &Registry{table: map[string]Suffixes{
	".smlb": {Body: ".sml", Descriptor: ".mlb"},
	".funb": {Body: ".fun", Descriptor: ".mlb"},
	".sigb": {Body: ".sig", Descriptor: ".mlb"},
	".sml":  {Body: ".sml"},
	".sig":  {Body: ".sig"},
	".fun":  {Body: ".fun"},
	".mlb":  {Body: ".mlb"},
}}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the output suffixes for ext. An unknown suffix is fatal for the
// caller and reported as CodeUnrecognizedExtension.
func (r *Registry) Lookup(ext string) (Suffixes, error) {
	s, ok := r.table[ext]
	if !ok {
		return Suffixes{}, domainerrors.New(domainerrors.CodeUnrecognizedExtension, "encountered unknown file extension").
			WithContext(domainerrors.CtxExtension, ext)
	}
	return s, nil
}

// LookupPath is Lookup applied to the suffix of path.
func (r *Registry) LookupPath(path string) (Suffixes, error) {
	s, err := r.Lookup(filepath.Ext(path))
	if err != nil {
		return Suffixes{}, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return s, nil
}

// Known reports whether ext is present in the table.
func (r *Registry) Known(ext string) bool {
	_, ok := r.table[ext]
	return ok
}

// Extensions lists the recognized suffixes in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.table))
	for ext := range r.table {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
