package output

import (
	"strings"

	"transmile/internal/parser"
)

// RenderSource renders the body of a transpiled file: lines from start on,
// minus leading blank lines, with a #line annotation prepended to the first
// remaining line. Lines are otherwise copied unmodified.
func RenderSource(lines []string, start int, relSource string) string {
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(LineDirective(bodyPosition(start), relSource))
	for _, l := range lines[start:] {
		buf.WriteString(l)
	}
	return buf.String()
}

func bodyPosition(index int) parser.Position {
	return parser.At(uint(index+1), 1)
}
