package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cardbook/internal/model"
)

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"

	minBarWidth = 10
	maxBarWidth = 40

	// UnnamedSection labels entries outside every configured section.
	UnnamedSection = "(main)"
)

// Options controls report layout.
type Options struct {
	Width int
	Color bool
}

// RenderSummary prints the headline counts for a catalog.
func RenderSummary(w io.Writer, expansion string, s model.Summary) error {
	lines := []string{
		fmt.Sprintf("Collection: %s", expansion),
		fmt.Sprintf("Total: %d", s.Total),
		fmt.Sprintf("Obtained: %d", s.Obtained),
		fmt.Sprintf("Missing: %d", s.Missing),
		fmt.Sprintf("Repeated: %d", s.RepeatedTotal),
		fmt.Sprintf("Complete: %s", percent(s)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSections prints one row per display section with a completion bar.
func RenderSections(w io.Writer, sections []model.SectionSummary, opts Options) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, "No cards in catalog.")
		return err
	}
	headers := []string{"Section", "Total", "Obtained", "Missing", "Repeated", "Complete", ""}
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		name := s.Name
		if name == "" {
			name = UnnamedSection
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Obtained),
			strconv.Itoa(s.Missing),
			strconv.Itoa(s.RepeatedTotal),
			percent(s.Summary),
		})
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
	barWidth := BarWidthFor(opts.Width, lines)
	for i, line := range lines {
		if i > 0 {
			line += " " + bar(sections[i-1].Summary, barWidth, opts.Color)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor fits the completion bar beside the widest table line.
func BarWidthFor(totalWidth int, lines []string) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	widest := 0
	for _, line := range lines {
		if n := runewidth.StringWidth(line); n > widest {
			widest = n
		}
	}
	width := totalWidth - widest - 3
	if width < minBarWidth {
		return minBarWidth
	}
	if width > maxBarWidth {
		return maxBarWidth
	}
	return width
}

func bar(s model.Summary, width int, useColor bool) string {
	filled := 0
	if s.Total > 0 {
		filled = s.Obtained * width / s.Total
	}
	out := "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
	if !useColor {
		return out
	}
	color := colorYellow
	if s.Total > 0 && s.Obtained == s.Total {
		color = colorGreen
	}
	return color + out + colorReset
}

func percent(s model.Summary) string {
	if s.Total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Obtained)*100/float64(s.Total))
}

// Row is one card line in a list report.
type Row struct {
	Entry  model.Entry
	Record model.Record
}

// RenderList prints one line per card.
func RenderList(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No matching cards.")
		return err
	}
	headers := []string{"ID", "Label", "Owned", "Repeats", "Section"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		owned := "no"
		if r.Record.HasCard {
			owned = "yes"
		}
		tableRows = append(tableRows, []string{
			r.Entry.ID,
			r.Entry.Label,
			owned,
			strconv.Itoa(r.Record.Repeats),
			r.Entry.Section,
		})
	}
	return RenderTable(w, headers, tableRows, map[int]bool{3: true})
}
