// # internal/resolver/resolver.go
package resolver

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domainerrors "transmile/internal/core/errors"
	"transmile/internal/language"
	"transmile/internal/parser"
)

// LibraryRoot prefixes paths into the compiler's own library tree. They are
// never searched for.
const LibraryRoot = "$(SML_LIB)"

const pathCutset = " \t\r\n\v\f\""

type Resolver struct {
	search SearchConfig
	exts   *language.Registry
	stat   func(string) (fs.FileInfo, error)
}

func NewResolver(search SearchConfig, exts *language.Registry) *Resolver {
	if exts == nil {
		exts = language.Default()
	}
	return &Resolver{
		search: search,
		exts:   exts,
		stat:   os.Stat,
	}
}

// Resolve maps a raw import path to a path relative to the source root.
// Absolute paths, library paths and explicitly relative paths are only cleaned.
func (r *Resolver) Resolve(raw string) (string, error) {
	p := strings.Trim(raw, pathCutset)
	if IsVerbatim(p) {
		return filepath.Clean(p), nil
	}

	p = filepath.Clean(p)
	for _, root := range r.search.Roots {
		candidate := filepath.Join(root, p)
		info, err := r.stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return r.relativeToSource(candidate)
	}

	return "", domainerrors.Wrap(fs.ErrNotExist, domainerrors.CodeUnresolvedPath, "file not found in search path").
		WithContext(domainerrors.CtxPath, raw)
}

// IsVerbatim reports whether p bypasses the search path.
func IsVerbatim(p string) bool {
	return filepath.IsAbs(p) ||
		strings.HasPrefix(p, LibraryRoot) ||
		strings.HasPrefix(p, "./") ||
		strings.HasPrefix(p, "../")
}

func (r *Resolver) relativeToSource(candidate string) (string, error) {
	absSource, err := filepath.Abs(r.search.SourceRoot)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "resolve source root")
	}
	absCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "resolve candidate path").
			WithContext(domainerrors.CtxPath, candidate)
	}
	rel, err := filepath.Rel(absSource, absCandidate)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "relativize candidate path").
			WithContext(domainerrors.CtxPath, candidate)
	}
	return rel, nil
}

// DescriptorPath replaces the suffix of path with the body suffix followed by
// the descriptor suffix, e.g. lib/a.smlb -> lib/a.sml.mlb.
func (r *Resolver) DescriptorPath(path string) (string, error) {
	ext := filepath.Ext(path)
	s, err := r.exts.Lookup(ext)
	if err != nil {
		return "", domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return strings.TrimSuffix(path, ext) + s.Body + s.Descriptor, nil
}

// ResolveImport resolves raw and maps it to the descriptor it will be built into.
func (r *Resolver) ResolveImport(raw string) (string, error) {
	p, err := r.Resolve(raw)
	if err != nil {
		return "", err
	}
	return r.DescriptorPath(p)
}

// BasisPath cleans a basis reference. Basis references name installed
// libraries and are never searched for.
func BasisPath(raw string) string {
	return filepath.Clean(strings.Trim(raw, pathCutset))
}

// ResolveFile resolves every path referenced by file. It fails on the first
// unresolved path or unknown suffix, before anything is rendered.
func (r *Resolver) ResolveFile(file *parser.ParsedFile) (*ResolvedFile, error) {
	out := &ResolvedFile{
		Exports: append([]parser.Export(nil), file.Exports...),
	}

	for _, b := range file.BasisRefs {
		out.Basis = append(out.Basis, ResolvedRef{Path: BasisPath(b.RawPath), Pos: b.Pos})
	}

	for _, u := range file.Unfiltered {
		p, err := r.ResolveImport(u.RawPath)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxLine, u.Pos.Line)
		}
		out.Unfiltered = append(out.Unfiltered, ResolvedRef{Path: p, Pos: u.Pos})
	}

	for _, f := range file.Filtered {
		p, err := r.ResolveImport(f.RawPath)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxLine, f.PathPos.Line)
		}
		out.Filtered = append(out.Filtered, ResolvedFilter{
			Path:        p,
			PathPos:     f.PathPos,
			Identifiers: append([]parser.Identifier(nil), f.Identifiers...),
		})
	}

	return out, nil
}
