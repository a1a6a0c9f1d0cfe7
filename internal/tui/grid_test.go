package tui

import (
	"strconv"
	"strings"
	"testing"

	"github.com/verte-zerg/cardbook/internal/model"
)

func sectionEntries() []model.Entry {
	return []model.Entry{
		{ID: "1", Label: "1"},
		{ID: "2", Label: "2"},
		{ID: "3", Label: "3"},
		{ID: "402", Label: "402", Section: "hidden cards"},
		{ID: "F1", Label: "F1", Section: "special cards"},
		{ID: "F2", Label: "F2", Section: "special cards"},
	}
}

func TestBuildRowsBreaksOnSection(t *testing.T) {
	rows := buildRows(sectionEntries(), 2)
	var shape []string
	for _, r := range rows {
		if r.header {
			shape = append(shape, "#"+r.section)
			continue
		}
		shape = append(shape, strings.Join(intsToStrings(r.items), ","))
	}
	want := "0,1|2|#hidden cards|3|#special cards|4,5"
	if got := strings.Join(shape, "|"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func intsToStrings(items []int) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func TestMoveVerticalSkipsHeaders(t *testing.T) {
	rows := buildRows(sectionEntries(), 2)
	if got := moveVertical(rows, 1, 1); got != 2 {
		t.Fatalf("expected clamp to short row, got %d", got)
	}
	if got := moveVertical(rows, 2, 1); got != 3 {
		t.Fatalf("expected to skip header, got %d", got)
	}
	if got := moveVertical(rows, 4, -1); got != 3 {
		t.Fatalf("expected move up over header, got %d", got)
	}
	if got := moveVertical(rows, 0, -1); got != 0 {
		t.Fatalf("expected to stay on first row, got %d", got)
	}
	if got := moveVertical(rows, 0, 100); got != 4 {
		t.Fatalf("expected last row, got %d", got)
	}
}

func TestCellText(t *testing.T) {
	entry := model.Entry{ID: "12", Label: "12"}
	if got := cellText(entry, model.Record{}, 4); got != "· 12     -" {
		t.Fatalf("unexpected missing cell: %q", got)
	}
	if got := cellText(entry, model.Record{HasCard: true, Repeats: 3}, 4); got != "✓ 12     3" {
		t.Fatalf("unexpected owned cell: %q", got)
	}
}

func TestColumnsFor(t *testing.T) {
	cell := cellWidthFor(3)
	if cell != 9 {
		t.Fatalf("unexpected cell width %d", cell)
	}
	if got := columnsFor(39, cell); got != 4 {
		t.Fatalf("expected 4 columns, got %d", got)
	}
	if got := columnsFor(0, cell); got != 1 {
		t.Fatalf("expected at least one column, got %d", got)
	}
}

func TestRenderGridCursorLine(t *testing.T) {
	entries := sectionEntries()
	rows := buildRows(entries, 2)
	out, line := renderGrid(rows, entries, model.Collection{}, 4, 3)
	if line != 5 {
		t.Fatalf("expected cursor on line 5, got %d", line)
	}
	if !strings.Contains(out, "special cards") {
		t.Fatalf("expected section header in output")
	}
}
