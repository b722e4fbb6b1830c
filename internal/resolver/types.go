package resolver

import "transmile/internal/parser"

// ResolvedRef is a basis reference or unfiltered import whose path is final.
type ResolvedRef struct {
	Path string
	Pos  parser.Position
}

type ResolvedFilter struct {
	Path        string
	PathPos     parser.Position
	Identifiers []parser.Identifier
}

// ResolvedFile is a ParsedFile with every path ready to be written into a
// descriptor.
type ResolvedFile struct {
	Basis      []ResolvedRef
	Unfiltered []ResolvedRef
	Filtered   []ResolvedFilter
	Exports    []parser.Export
}
