package output

import (
	"fmt"
	"path/filepath"

	"transmile/internal/parser"
)

// LineDirective renders an MLton #line annotation attributing the text that
// follows it to pos in relSource. Unknown positions render as 1.1.
func LineDirective(pos parser.Position, relSource string) string {
	line, col := pos.LineColumn()
	return fmt.Sprintf("(*#line %d.%d \"%s\"*)", line, col, filepath.ToSlash(relSource))
}
