// # internal/output/mlb.go
package output

import (
	"path/filepath"
	"strconv"
	"strings"

	"transmile/internal/parser"
	"transmile/internal/resolver"
)

const indentUnit = "  "

// Binding name prefixes, one counter per category.
const (
	basisPrefix      = "b"
	unfilteredPrefix = "u"
	filteredPrefix   = "f"
)

// MLBGenerator renders the ML Basis descriptor of one transpiled file.
type MLBGenerator struct {
	file      *resolver.ResolvedFile
	module    string
	relSource string
}

// NewMLBGenerator prepares a descriptor for file. module is the file name of
// the translated body; relSource is the original input relative to the
// directory the descriptor is written to.
func NewMLBGenerator(file *resolver.ResolvedFile, module, relSource string) *MLBGenerator {
	return &MLBGenerator{
		file:      file,
		module:    module,
		relSource: relSource,
	}
}

// RenderDescriptor is NewMLBGenerator(file, module, relSource).Generate().
func RenderDescriptor(file *resolver.ResolvedFile, module, relSource string) string {
	return NewMLBGenerator(file, module, relSource).Generate()
}

type mlbWriter struct {
	lines []string
}

func (w *mlbWriter) line(depth int, text string) {
	w.lines = append(w.lines, strings.Repeat(indentUnit, depth)+text)
}

func (g *MLBGenerator) Generate() string {
	var w mlbWriter

	depth := 0
	if len(g.file.Exports) > 0 {
		w.line(0, "local")
		depth = 1
	}

	g.writeImports(&w, depth)

	if len(g.file.Exports) > 0 {
		w.line(0, "in")
		for _, exp := range g.file.Exports {
			w.line(1, g.annotate(exp.Pos)+exp.Name)
		}
		w.line(0, "end")
	}

	return dropBlankLines(w.lines)
}

// Bindings returns the synthesized binding names in the order they are opened.
func (g *MLBGenerator) Bindings() []string {
	names := make([]string, 0, len(g.file.Basis)+len(g.file.Unfiltered)+len(g.file.Filtered))
	for i := range g.file.Basis {
		names = append(names, basisPrefix+strconv.Itoa(i))
	}
	for i := range g.file.Unfiltered {
		names = append(names, unfilteredPrefix+strconv.Itoa(i))
	}
	for i := range g.file.Filtered {
		names = append(names, filteredPrefix+strconv.Itoa(i))
	}
	return names
}

func (g *MLBGenerator) writeImports(w *mlbWriter, depth int) {
	w.line(depth, "local")

	for i, ref := range g.file.Basis {
		g.writeBas(w, depth+1, basisPrefix+strconv.Itoa(i), ref)
	}
	for i, ref := range g.file.Unfiltered {
		g.writeBas(w, depth+1, unfilteredPrefix+strconv.Itoa(i), ref)
	}
	for i, f := range g.file.Filtered {
		g.writeLet(w, depth+1, filteredPrefix+strconv.Itoa(i), f)
	}

	w.line(depth+1, "open "+strings.Join(g.Bindings(), " "))
	w.line(depth, "in")
	w.line(depth+1, g.module)
	w.line(depth, "end")
}

func (g *MLBGenerator) writeBas(w *mlbWriter, depth int, name string, ref resolver.ResolvedRef) {
	w.line(depth, "basis "+name+" = bas "+g.annotate(ref.Pos)+quotePath(ref.Path)+" end")
}

// writeLet binds the module privately and re-exposes only the listed
// identifiers under name.
func (g *MLBGenerator) writeLet(w *mlbWriter, depth int, name string, f resolver.ResolvedFilter) {
	w.line(depth, "basis "+name+" =")
	w.line(depth+1, "let")
	w.line(depth+2, g.annotate(f.PathPos)+quotePath(f.Path))
	w.line(depth+1, "in")
	w.line(depth+2, "bas")
	for _, id := range f.Identifiers {
		w.line(depth+3, g.annotate(id.Pos)+id.Name)
	}
	w.line(depth+2, "end")
	w.line(depth+1, "end")
}

func (g *MLBGenerator) annotate(pos parser.Position) string {
	return LineDirective(pos, g.relSource)
}

func quotePath(p string) string {
	return `"` + filepath.ToSlash(p) + `"`
}

func dropBlankLines(lines []string) string {
	var buf strings.Builder
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			continue
		}
		buf.WriteString(l)
		buf.WriteString("\n")
	}
	return buf.String()
}
