package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	domainerrors "transmile/internal/core/errors"
)

const (
	keywordExport = "export"
	keywordImport = "import"
	keywordFrom   = "from"
)

// Classify parses one directive line. row is the 1-based line number used for
// positions. Lines that start with neither "import" nor "export" are returned as
// KindIgnored.
func Classify(line string, row int) (Directive, error) {
	lead := leadingSpace(line)
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, keywordExport):
		ids := splitIdentifiers(line, lead+len(keywordExport), trimmed[len(keywordExport):], row)
		entries := make([]Entry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, Export{Name: id.Name, Pos: id.Pos})
		}
		return Directive{Kind: KindExport, Row: row, Entries: entries}, nil

	case strings.HasPrefix(trimmed, keywordImport):
		return classifyImport(line, lead+len(keywordImport), trimmed[len(keywordImport):], row)

	default:
		return Directive{Kind: KindIgnored, Row: row}, nil
	}
}

func classifyImport(line string, restOff int, rest string, row int) (Directive, error) {
	clause := strings.TrimSpace(rest)
	clauseOff := restOff + leadingSpace(rest)

	switch {
	case strings.HasPrefix(clause, "$") || strings.HasPrefix(clause, `"$`):
		dollar := clauseOff + strings.IndexByte(clause, '$')
		return Directive{Kind: KindBasis, Row: row, Entries: []Entry{
			BasisRef{RawPath: clause, Pos: at(line, row, dollar)},
		}}, nil

	case strings.HasPrefix(clause, "("):
		end := MatchParen(clause)
		if end < 0 {
			return Directive{}, malformed("unclosed parenthesis in import block", row, line)
		}
		afterParen := clause[end+1:]
		remainder := strings.TrimSpace(afterParen)
		if !strings.HasPrefix(remainder, keywordFrom) {
			return Directive{}, malformed("expected 'from' in import", row, line)
		}
		fromOff := clauseOff + end + 1 + leadingSpace(afterParen)
		afterFrom := remainder[len(keywordFrom):]
		path := strings.TrimSpace(afterFrom)
		pathOff := fromOff + len(keywordFrom) + leadingSpace(afterFrom)

		return Directive{Kind: KindFiltered, Row: row, Entries: []Entry{
			FilteredImport{
				RawPath:     path,
				PathPos:     at(line, row, pathOff),
				Identifiers: splitIdentifiers(line, clauseOff, clause[:end+1], row),
			},
		}}, nil

	case clause != "":
		return Directive{Kind: KindUnfiltered, Row: row, Entries: []Entry{
			UnfilteredImport{RawPath: clause, Pos: at(line, row, clauseOff)},
		}}, nil

	default:
		return Directive{}, malformed("unexpected import format", row, line)
	}
}

// MatchParen returns the index of the parenthesis closing the one at s[0], or -1
// when s does not start with '(' or the parenthesis is never closed.
func MatchParen(s string) int {
	if !strings.HasPrefix(s, "(") {
		return -1
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitIdentifiers splits text, which starts at byte offset base of line, on
// commas. Parentheses and surrounding whitespace are stripped from each name;
// empty names are kept.
func splitIdentifiers(line string, base int, text string, row int) []Identifier {
	pieces := strings.Split(text, ",")
	ids := make([]Identifier, 0, len(pieces))
	off := base
	for _, piece := range pieces {
		name := strings.TrimSpace(stripParens(piece))
		first := strings.IndexFunc(piece, func(r rune) bool {
			return !unicode.IsSpace(r) && r != '(' && r != ')'
		})
		if first < 0 {
			first = 0
		}
		ids = append(ids, Identifier{Name: name, Pos: at(line, row, off+first)})
		off += len(piece) + len(",")
	}
	return ids
}

func stripParens(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
}

// at converts a byte offset in line to a position; columns count runes.
func at(line string, row, offset int) Position {
	if offset > len(line) {
		offset = len(line)
	}
	col := utf8.RuneCountInString(line[:offset]) + 1
	return At(uint(row), uint(col))
}

func malformed(msg string, row int, line string) error {
	return domainerrors.New(domainerrors.CodeMalformedDirective, msg).
		WithContext(domainerrors.CtxLine, row).
		WithContext(domainerrors.CtxText, strings.TrimSpace(line))
}
