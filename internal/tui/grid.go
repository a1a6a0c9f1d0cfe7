package tui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/report"
)

const (
	countWidth    = 3
	minLabelWidth = 3
	maxLabelWidth = 16
)

// gridRow is either a section header or a run of entry indices.
type gridRow struct {
	header  bool
	section string
	items   []int
}

// buildRows lays entries out in rows of at most columns cells. A section change
// always starts a new row preceded by a header; a leading unnamed section has none.
func buildRows(entries []model.Entry, columns int) []gridRow {
	if columns < 1 {
		columns = 1
	}
	var rows []gridRow
	for i, e := range entries {
		newSection := i == 0 || entries[i-1].Section != e.Section
		if newSection {
			if i > 0 || e.Section != "" {
				rows = append(rows, gridRow{header: true, section: e.Section})
			}
			rows = append(rows, gridRow{})
		} else if len(rows[len(rows)-1].items) == columns {
			rows = append(rows, gridRow{})
		}
		last := &rows[len(rows)-1]
		last.items = append(last.items, i)
	}
	return rows
}

func locate(rows []gridRow, cursor int) (row, col int) {
	for r, gr := range rows {
		for c, idx := range gr.items {
			if idx == cursor {
				return r, c
			}
		}
	}
	return -1, -1
}

// moveVertical returns the entry index delta item rows away, keeping the column
// when the target row is long enough.
func moveVertical(rows []gridRow, cursor, delta int) int {
	r, c := locate(rows, cursor)
	if r < 0 || delta == 0 {
		return cursor
	}
	step := 1
	if delta < 0 {
		step = -1
		delta = -delta
	}
	for delta > 0 {
		next := r + step
		for next >= 0 && next < len(rows) && rows[next].header {
			next += step
		}
		if next < 0 || next >= len(rows) {
			break
		}
		r = next
		delta--
	}
	items := rows[r].items
	return items[minInt(c, len(items)-1)]
}

func labelWidthFor(entries []model.Entry) int {
	width := minLabelWidth
	for _, e := range entries {
		width = maxInt(width, runewidth.StringWidth(e.Label))
	}
	return minInt(width, maxLabelWidth)
}

func cellWidthFor(labelWidth int) int {
	return 2 + labelWidth + 1 + countWidth
}

func columnsFor(width, cellWidth int) int {
	return maxInt(1, (width+1)/(cellWidth+1))
}

func cellText(entry model.Entry, rec model.Record, labelWidth int) string {
	mark := "·"
	count := "-"
	if rec.HasCard {
		mark = "✓"
		count = strconv.Itoa(rec.Repeats)
	}
	label := runewidth.Truncate(entry.Label, labelWidth, "…")
	return mark + " " + runewidth.FillRight(label, labelWidth) + " " + runewidth.FillLeft(count, countWidth)
}

// renderGrid returns the grid lines and the line holding the cursor.
func renderGrid(rows []gridRow, entries []model.Entry, records model.Collection, cursor, labelWidth int) (string, int) {
	lines := make([]string, 0, len(rows))
	cursorLine := 0
	for _, gr := range rows {
		if gr.header {
			name := gr.section
			if name == "" {
				name = report.UnnamedSection
			}
			lines = append(lines, sectionStyle.Render(name))
			continue
		}
		cells := make([]string, 0, len(gr.items))
		for _, idx := range gr.items {
			entry := entries[idx]
			rec := records[entry.ID]
			style := missingCellStyle
			if rec.HasCard {
				style = ownedCellStyle
			}
			if idx == cursor {
				style = style.Reverse(true)
				cursorLine = len(lines)
			}
			cells = append(cells, style.Render(cellText(entry, rec, labelWidth)))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n"), cursorLine
}
