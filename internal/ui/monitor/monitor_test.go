package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"

	coreapp "transmile/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func sampleReport() *coreapp.Report {
	return &coreapp.Report{
		Files: []coreapp.FileResult{
			{Path: "src/a.smlb", Status: coreapp.StatusTranspiled, Duration: time.Millisecond},
			{Path: "src/b.smlb", Status: coreapp.StatusFresh},
			{Path: "src/c.smlb", Status: coreapp.StatusFailed, Err: errors.New("[UNRESOLVED_PATH] cannot resolve")},
			{Path: "src/README.txt", Status: coreapp.StatusCopied},
		},
	}
}

func TestModel_UpdateListsFailuresFirst(t *testing.T) {
	m := initialModel()

	updated, _ := m.Update(updateMsg{report: sampleReport(), changed: 2})
	state, ok := updated.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", updated)
	}

	items := state.list.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	first := items[0].(item)
	if !first.failed || !strings.Contains(first.title, "c.smlb") {
		t.Fatalf("expected failure first, got %+v", first)
	}
	if state.rebuilds != 1 || state.changed != 2 {
		t.Fatalf("unexpected counters: rebuilds=%d changed=%d", state.rebuilds, state.changed)
	}

	view := state.View()
	if !strings.Contains(view, "1 Failed") {
		t.Fatalf("expected failure summary in view, got:\n%s", view)
	}
}

func TestModel_CleanView(t *testing.T) {
	m := initialModel()
	if !strings.Contains(m.View(), "waiting for first build") {
		t.Fatal("expected waiting status before first update")
	}

	updated, _ := m.Update(updateMsg{report: &coreapp.Report{
		Files: []coreapp.FileResult{{Path: "src/a.smlb", Status: coreapp.StatusFresh}},
	}})
	view := updated.(model).View()
	if !strings.Contains(view, "Up to date") {
		t.Fatalf("expected clean summary, got:\n%s", view)
	}
}

func TestModel_Quit(t *testing.T) {
	m := initialModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
