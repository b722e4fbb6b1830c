// # internal/parser/types.go
package parser

import "fmt"

const (
	// Marker separates the directive block from the body. It is expected on a
	// line by itself.
	Marker = "(* +++ *)"
	// DefaultBasis is imported when a directive block names no basis library.
	DefaultBasis = "$(SML_LIB)/basis/basis.mlb"
)

// Position is a 1-based line/column coordinate. The zero value is Unknown.
type Position struct {
	Line   uint
	Column uint
	Known  bool
}

// Unknown marks entries that have no source location, such as the synthesized
// default basis.
var Unknown = Position{}

// At returns a known position at the 1-based line and column.
func At(line, column uint) Position {
	return Position{Line: line, Column: column, Known: true}
}

// LineColumn returns the coordinate to render; unknown positions map to 1.1.
func (p Position) LineColumn() (uint, uint) {
	if !p.Known {
		return 1, 1
	}
	return p.Line, p.Column
}

func (p Position) String() string {
	if !p.Known {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d", p.Line, p.Column)
}

// Entry is one parsed directive item. The set of implementations is closed.
type Entry interface {
	isEntry()
}

// BasisRef names a pre-installed basis library; it is never path-resolved.
type BasisRef struct {
	RawPath string
	Pos     Position
}

// UnfilteredImport brings every binding of a module into scope.
type UnfilteredImport struct {
	RawPath string
	Pos     Position
}

// Identifier is one name listed in a filtered import clause.
type Identifier struct {
	Name string
	Pos  Position
}

// FilteredImport exposes only Identifiers from the module at RawPath.
// Identifiers keep source order and are not deduplicated.
type FilteredImport struct {
	RawPath     string
	PathPos     Position
	Identifiers []Identifier
}

// Export names a module binding re-exported by the descriptor.
type Export struct {
	Name string
	Pos  Position
}

func (BasisRef) isEntry()         {}
func (UnfilteredImport) isEntry() {}
func (FilteredImport) isEntry()   {}
func (Export) isEntry()           {}

// DirectiveKind classifies a single line of the directive block.
type DirectiveKind int

const (
	// KindIgnored covers blank lines, comments and unknown keywords. Such lines
	// are skipped without a diagnostic.
	KindIgnored DirectiveKind = iota
	KindExport
	KindBasis
	KindUnfiltered
	KindFiltered
)

func (k DirectiveKind) String() string {
	switch k {
	case KindExport:
		return "export"
	case KindBasis:
		return "basis"
	case KindUnfiltered:
		return "unfiltered"
	case KindFiltered:
		return "filtered"
	default:
		return "ignored"
	}
}

// Directive is the classification of one directive line and the entries it
// contributes. Export lines contribute one Export per identifier, import lines
// exactly one entry, ignored lines none.
type Directive struct {
	Kind    DirectiveKind
	Row     int
	Entries []Entry
}

// ParsedFile is the directive block of one input file split into categories,
// plus the raw lines the body is rendered from.
type ParsedFile struct {
	BasisRefs  []BasisRef
	Unfiltered []UnfilteredImport
	Filtered   []FilteredImport
	Exports    []Export

	// IgnoredRows lists the 1-based rows of directive lines classified as ignored.
	IgnoredRows []int

	// HasDirectives is false when no marker line was found.
	HasDirectives bool

	// BodyStartLine is the 0-based index into BodyLines where the body begins.
	BodyStartLine int
	// BodyLines holds every line of the input with its terminator.
	BodyLines []string
}

func (f *ParsedFile) add(d Directive) {
	if d.Kind == KindIgnored {
		f.IgnoredRows = append(f.IgnoredRows, d.Row)
		return
	}
	for _, e := range d.Entries {
		switch e := e.(type) {
		case BasisRef:
			f.BasisRefs = append(f.BasisRefs, e)
		case UnfilteredImport:
			f.Unfiltered = append(f.Unfiltered, e)
		case FilteredImport:
			f.Filtered = append(f.Filtered, e)
		case Export:
			f.Exports = append(f.Exports, e)
		}
	}
}
