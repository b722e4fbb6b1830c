// # internal/parser/parser.go
package parser

import (
	"log/slog"
	"strings"
)

// SplitLines splits content into lines that keep their terminators, so that
// joining the result reproduces content exactly.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// FindMarker returns the index of the first line containing Marker, or -1.
func FindMarker(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, Marker) {
			return i
		}
	}
	return -1
}

// Parse splits lines into the directive block and the body and parses every
// directive line. Without a marker the whole input is body and only the default
// basis is imported.
func Parse(lines []string) (*ParsedFile, error) {
	split := FindMarker(lines)
	if split < 0 {
		return &ParsedFile{
			BasisRefs: []BasisRef{{RawPath: DefaultBasis, Pos: Unknown}},
			BodyLines: lines,
		}, nil
	}

	file := &ParsedFile{
		HasDirectives: true,
		BodyStartLine: split + 1,
		BodyLines:     lines,
	}
	for i, line := range lines[:split] {
		d, err := Classify(line, i+1)
		if err != nil {
			return nil, err
		}
		if d.Kind == KindIgnored && strings.TrimSpace(line) != "" {
			slog.Debug("ignoring directive line", "line", i+1, "text", strings.TrimSpace(line))
		}
		file.add(d)
	}

	if len(file.BasisRefs) == 0 {
		file.BasisRefs = append(file.BasisRefs, BasisRef{RawPath: DefaultBasis, Pos: Unknown})
	}
	return file, nil
}

// ParseContent is Parse over the lines of content.
func ParseContent(content []byte) (*ParsedFile, error) {
	return Parse(SplitLines(string(content)))
}
