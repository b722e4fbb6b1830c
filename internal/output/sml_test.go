package output

import (
	"strings"
	"testing"

	"transmile/internal/parser"
)

func TestRenderSourceSkipsBlankLines(t *testing.T) {
	lines := parser.SplitLines("import a.smlb\n(* +++ *)\n\n   \nstructure A = struct end\n\nval x = 1\n")

	got := RenderSource(lines, 2, "../src/a.smlb")
	want := "(*#line 5.1 \"../src/a.smlb\"*)structure A = struct end\n\nval x = 1\n"
	if got != want {
		t.Errorf("RenderSource() = %q, want %q", got, want)
	}
}

func TestRenderSourceWithoutMarker(t *testing.T) {
	content := "structure B = struct\n  val y = 2\nend"
	got := RenderSource(parser.SplitLines(content), 0, "b.sml")

	if !strings.HasPrefix(got, `(*#line 1.1 "b.sml"*)`) {
		t.Errorf("missing leading annotation: %q", got)
	}
	if strings.TrimPrefix(got, `(*#line 1.1 "b.sml"*)`) != content {
		t.Errorf("body not copied verbatim: %q", got)
	}
}

func TestRenderSourceEmpty(t *testing.T) {
	tests := []struct {
		content string
		start   int
	}{
		{"import a.smlb\n(* +++ *)\n", 2},
		{"import a.smlb\n(* +++ *)\n\n  \n", 2},
		{"", 0},
	}
	for _, tt := range tests {
		if got := RenderSource(parser.SplitLines(tt.content), tt.start, "a.smlb"); got != "" {
			t.Errorf("RenderSource(%q) = %q, want empty", tt.content, got)
		}
	}
}

func TestRenderSourcePreservesCRLF(t *testing.T) {
	lines := parser.SplitLines("(* +++ *)\r\nval a = 1\r\n")
	got := RenderSource(lines, 1, "c.smlb")
	if got != "(*#line 2.1 \"c.smlb\"*)val a = 1\r\n" {
		t.Errorf("unexpected output %q", got)
	}
}
