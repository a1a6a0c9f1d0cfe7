package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/cardbook/internal/catalog"
	"github.com/verte-zerg/cardbook/internal/collection"
	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/store"
)

func intPtr(v int) *int {
	return &v
}

func newTestModel(t *testing.T) (*Model, *collection.Engine) {
	t.Helper()
	cat, err := catalog.Build(model.CatalogConfig{Expansion: "base", Start: intPtr(1), End: intPtr(5)})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	engine, err := collection.New(context.Background(), cat, store.NewMemory())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	m := NewModel(context.Background(), engine)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, engine
}

func keys(m *Model, inputs ...string) {
	for _, in := range inputs {
		var msg tea.KeyMsg
		switch in {
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(in)}
		}
		m.Update(msg)
	}
}

func TestToggleAndRepeatKeys(t *testing.T) {
	m, engine := newTestModel(t)
	keys(m, "right", " ", "+", "+", "-", "+")
	if got := engine.Record("2"); got != (model.Record{HasCard: true, Repeats: 2}) {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !strings.Contains(m.renderFooter(), "Obtained 1") || !strings.Contains(m.renderFooter(), "Repeated 2") {
		t.Fatalf("footer missing summary: %s", m.renderFooter())
	}
	keys(m, " ")
	if got := engine.Record("2"); got != (model.Record{}) {
		t.Fatalf("expected reset record, got %+v", got)
	}
}

func TestFilterKeys(t *testing.T) {
	m, _ := newTestModel(t)
	keys(m, " ", "3")
	if m.mode != model.FilterMissing || len(m.visible) != 4 {
		t.Fatalf("expected 4 missing cards, got mode=%s visible=%d", m.mode, len(m.visible))
	}
	keys(m, "2")
	if len(m.visible) != 1 || m.visible[0].ID != "1" {
		t.Fatalf("unexpected obtained cards: %+v", m.visible)
	}
	keys(m, "4")
	if len(m.visible) != 0 {
		t.Fatalf("expected no repeated cards")
	}
	if !strings.Contains(m.View(), "No cards match.") {
		t.Fatalf("expected empty placeholder")
	}
}

func TestToggleInFilteredViewKeepsCursorInRange(t *testing.T) {
	m, _ := newTestModel(t)
	keys(m, "3", "G", " ")
	if len(m.visible) != 4 || m.cursor != 3 {
		t.Fatalf("unexpected cursor %d over %d cards", m.cursor, len(m.visible))
	}
}

func TestSearchOverridesFilter(t *testing.T) {
	m, _ := newTestModel(t)
	keys(m, "2", "/", "3", ",", " ", "5")
	if !m.searchMode {
		t.Fatalf("expected search mode")
	}
	if m.query != "3, 5" || len(m.visible) != 2 {
		t.Fatalf("unexpected search state: %q %+v", m.query, m.visible)
	}
	keys(m, "enter")
	if m.searchMode || m.query != "3, 5" {
		t.Fatalf("enter should keep the query")
	}
	keys(m, "1")
	if m.query != "" || len(m.visible) != 5 {
		t.Fatalf("choosing a filter should clear search")
	}
	keys(m, "/", "4", "esc")
	if m.query != "" || len(m.visible) != 5 {
		t.Fatalf("esc should clear search")
	}
}

func TestMarkAllConfirm(t *testing.T) {
	m, engine := newTestModel(t)
	keys(m, "M", "n")
	if engine.AllMarked() {
		t.Fatalf("cancel should not mark")
	}
	keys(m, "M")
	if !strings.Contains(m.View(), "Mark every card as obtained?") {
		t.Fatalf("expected mark prompt")
	}
	keys(m, "y")
	if !engine.AllMarked() {
		t.Fatalf("expected all marked")
	}
	keys(m, "M")
	if !strings.Contains(m.View(), "Unmark every card?") {
		t.Fatalf("expected unmark prompt")
	}
	keys(m, "y")
	if engine.Summary().Obtained != 0 {
		t.Fatalf("expected all unmarked")
	}
}

func TestCopyModal(t *testing.T) {
	m, _ := newTestModel(t)
	var copied []string
	m.copyFn = func(text string) error {
		copied = append(copied, text)
		return nil
	}
	keys(m, " ", "+", "+", "c")
	if !strings.Contains(m.View(), "2, 3, 4, 5") {
		t.Fatalf("expected missing preview:\n%s", m.View())
	}
	keys(m, "r")
	if !strings.Contains(m.View(), "1(x2)") {
		t.Fatalf("expected repeated preview")
	}
	keys(m, "enter")
	if len(copied) != 1 || copied[0] != "1(x2)" {
		t.Fatalf("unexpected clipboard writes: %v", copied)
	}
	if m.copyMode || !strings.Contains(m.status, "repeated") {
		t.Fatalf("expected modal closed with status, got %q", m.status)
	}
}

func TestCopyModalNothingToCopy(t *testing.T) {
	m, _ := newTestModel(t)
	called := false
	m.copyFn = func(string) error {
		called = true
		return nil
	}
	keys(m, "c", "o")
	if !strings.Contains(m.View(), NothingToCopy) {
		t.Fatalf("expected placeholder")
	}
	keys(m, "enter")
	if called || !m.copyMode {
		t.Fatalf("empty copy should be ignored")
	}
}

func TestCopyModalClipboardError(t *testing.T) {
	m, _ := newTestModel(t)
	m.copyFn = func(string) error { return errors.New("no clipboard") }
	keys(m, "c", "enter")
	if !strings.Contains(m.errMsg, "no clipboard") {
		t.Fatalf("expected clipboard error, got %q", m.errMsg)
	}
}

func TestViewFitsWindow(t *testing.T) {
	m, _ := newTestModel(t)
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 24 {
		t.Fatalf("expected 24 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "all") || !strings.Contains(lines[0], "repeated") {
		t.Fatalf("expected filter tabs, got %q", lines[0])
	}
}

func TestNextCopyModeWraps(t *testing.T) {
	if got := nextCopyMode(model.FilterRepeated, 1); got != model.FilterObtained {
		t.Fatalf("expected wrap to obtained, got %s", got)
	}
	if got := nextCopyMode(model.FilterObtained, -1); got != model.FilterRepeated {
		t.Fatalf("expected wrap to repeated, got %s", got)
	}
}
