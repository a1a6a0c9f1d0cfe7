// Package tui provides the Bubble Tea collection browser.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cardbook/internal/collection"
	"github.com/verte-zerg/cardbook/internal/model"
)

// NothingToCopy is shown instead of an empty copy preview.
const NothingToCopy = "nothing to copy"

var copyModes = []model.FilterMode{model.FilterObtained, model.FilterMissing, model.FilterRepeated}

var (
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Underline(true)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	sectionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	ownedCellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	missingCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// Model implements the Bubble Tea collection browser.
type Model struct {
	ctx    context.Context
	engine *collection.Engine
	copyFn func(string) error

	mode       model.FilterMode
	query      string
	visible    []model.Entry
	rows       []gridRow
	cursor     int
	labelWidth int

	width    int
	height   int
	viewport viewport.Model

	searchMode  bool
	searchInput textinput.Model

	confirmMode bool
	confirmMark bool

	copyMode bool
	copyType model.FilterMode

	status string
	errMsg string
}

// NewModel constructs a browser over engine.
func NewModel(ctx context.Context, engine *collection.Engine) *Model {
	m := &Model{
		ctx:        ctx,
		engine:     engine,
		copyFn:     clipboard.WriteAll,
		mode:       model.FilterAll,
		labelWidth: labelWidthFor(engine.Catalog().Entries()),
		viewport:   viewport.New(0, 0),
		copyType:   model.FilterMissing,
	}
	m.searchInput = textinput.New()
	m.searchInput.Prompt = "Search: "
	m.searchInput.Placeholder = "1, 5, F3"
	m.searchInput.CharLimit = 0
	m.searchInput.Cursor.SetMode(cursor.CursorBlink)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.searchMode:
			return m.updateSearch(msg)
		case m.confirmMode:
			return m.updateConfirm(msg)
		case m.copyMode:
			return m.updateCopy(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveCursor(m.cursor - 1)
	case "right", "l":
		m.moveCursor(m.cursor + 1)
	case "up", "k":
		m.moveCursor(moveVertical(m.rows, m.cursor, -1))
	case "down", "j":
		m.moveCursor(moveVertical(m.rows, m.cursor, 1))
	case "pgup":
		m.moveCursor(moveVertical(m.rows, m.cursor, -maxInt(1, m.viewport.Height)))
	case "pgdown":
		m.moveCursor(moveVertical(m.rows, m.cursor, maxInt(1, m.viewport.Height)))
	case "g", "home":
		m.moveCursor(0)
	case "G", "end":
		m.moveCursor(len(m.visible) - 1)
	case " ", "enter":
		m.mutate(m.engine.Toggle)
	case "+", "=":
		m.mutate(m.engine.Increment)
	case "-":
		m.mutate(m.engine.Decrement)
	case "1", "2", "3", "4":
		m.setMode(model.FilterModes[int(msg.String()[0]-'1')])
	case "tab":
		m.setMode(m.shiftMode(1))
	case "shift+tab":
		m.setMode(m.shiftMode(-1))
	case "/":
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()
	case "esc":
		if m.query != "" {
			m.query = ""
			m.refresh()
		}
	case "M":
		m.confirmMode = true
		m.confirmMark = !m.engine.AllMarked()
	case "c":
		m.copyMode = true
		m.copyType = model.FilterMissing
	case "r":
		if err := m.engine.Reload(m.ctx); err != nil {
			m.errMsg = err.Error()
		} else {
			m.errMsg = ""
			m.status = "Reloaded from storage"
		}
		m.refresh()
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchInput.Blur()
		m.query = ""
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.query {
		m.query = m.searchInput.Value()
		m.cursor = 0
		m.refresh()
	}
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmMode = false
		var err error
		if m.confirmMark {
			err = m.engine.MarkAll(m.ctx)
		} else {
			err = m.engine.UnmarkAll(m.ctx)
		}
		if err != nil {
			m.errMsg = err.Error()
		} else {
			m.errMsg = ""
		}
		m.refresh()
	case "n", "N", "esc", "q":
		m.confirmMode = false
	}
	return m, nil
}

func (m *Model) updateCopy(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.copyMode = false
	case "o":
		m.copyType = model.FilterObtained
	case "m":
		m.copyType = model.FilterMissing
	case "r":
		m.copyType = model.FilterRepeated
	case "tab":
		m.copyType = nextCopyMode(m.copyType, 1)
	case "shift+tab":
		m.copyType = nextCopyMode(m.copyType, -1)
	case "enter", "y":
		text := m.engine.CopyText(m.copyType)
		if text == "" {
			return m, nil
		}
		if err := m.copyFn(text); err != nil {
			m.errMsg = fmt.Sprintf("failed to copy: %v", err)
			return m, nil
		}
		m.errMsg = ""
		m.status = fmt.Sprintf("Copied %s cards to clipboard", m.copyType)
		m.copyMode = false
	}
	return m, nil
}

func nextCopyMode(current model.FilterMode, delta int) model.FilterMode {
	idx := 0
	for i, mode := range copyModes {
		if mode == current {
			idx = i
		}
	}
	idx = (idx + delta + len(copyModes)) % len(copyModes)
	return copyModes[idx]
}

func (m *Model) shiftMode(delta int) model.FilterMode {
	idx := 0
	for i, mode := range model.FilterModes {
		if mode == m.mode {
			idx = i
		}
	}
	n := len(model.FilterModes)
	return model.FilterModes[(idx+delta+n)%n]
}

// setMode switches the filter and clears any search.
func (m *Model) setMode(mode model.FilterMode) {
	m.mode = mode
	m.query = ""
	m.cursor = 0
	m.refresh()
}

func (m *Model) mutate(op func(context.Context, string) (model.Record, error)) {
	entry, ok := m.current()
	if !ok {
		return
	}
	if _, err := op(m.ctx, entry.ID); err != nil {
		m.errMsg = err.Error()
	} else {
		m.errMsg = ""
	}
	m.refreshKeeping(entry.ID)
}

func (m *Model) current() (model.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Entry{}, false
	}
	return m.visible[m.cursor], true
}

func (m *Model) moveCursor(idx int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = maxInt(0, minInt(idx, len(m.visible)-1))
	m.renderGrid()
}

// refreshKeeping refreshes and keeps the cursor on id when it is still visible.
func (m *Model) refreshKeeping(id string) {
	prev := m.cursor
	m.refresh()
	for i, e := range m.visible {
		if e.ID == id {
			m.cursor = i
			m.renderGrid()
			return
		}
	}
	m.moveCursor(prev)
}

// refresh recomputes the visible entries. An active search overrides the filter.
func (m *Model) refresh() {
	cat := m.engine.Catalog()
	var ids []string
	if strings.TrimSpace(m.query) != "" {
		ids = cat.Search(m.query)
	} else {
		ids = m.engine.FilterIDs(m.mode)
	}
	m.visible = m.visible[:0]
	for _, id := range ids {
		if entry, ok := cat.Entry(id); ok {
			m.visible = append(m.visible, entry)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.renderGrid()
}

func (m *Model) renderGrid() {
	_, bodyHeight, _ := m.layoutHeights()
	width := maxInt(1, m.width)
	m.rows = buildRows(m.visible, columnsFor(width, cellWidthFor(m.labelWidth)))
	content, cursorLine := renderGrid(m.rows, m.visible, m.engine.Snapshot(), m.cursor, m.labelWidth)
	if len(m.visible) == 0 {
		content = headerStyle.Render("No cards match.")
	}
	m.viewport.Width = width
	m.viewport.Height = bodyHeight
	m.viewport.SetContent(content)
	if cursorLine < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorLine)
	} else if cursorLine >= m.viewport.YOffset+bodyHeight {
		m.viewport.SetYOffset(cursorLine - bodyHeight + 1)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 2
	footerHeight = 2
	if m.errMsg != "" || m.status != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.copyMode {
		return fitLines(m.renderCopyModal(), m.width, m.height)
	}
	if m.confirmMode {
		return fitLines(m.renderConfirmModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewport.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(model.FilterModes))
	for i, mode := range model.FilterModes {
		label := fmt.Sprintf("%d %s", i+1, mode)
		if mode == m.mode && m.query == "" {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderHeader() string {
	second := fmt.Sprintf("%s · %d shown", m.engine.Catalog().Expansion(), len(m.visible))
	if m.query != "" {
		second = fmt.Sprintf("%s · search %q", second, m.query)
	}
	if m.searchMode {
		second = m.searchInput.View()
	} else {
		second = headerStyle.Render(truncateLine(second, m.width))
	}
	return m.renderTabs() + "\n" + second
}

func (m *Model) renderSummary() string {
	s := m.engine.Summary()
	return fmt.Sprintf("Total %d  Obtained %d  Missing %d  Repeated %d", s.Total, s.Obtained, s.Missing, s.RepeatedTotal)
}

func (m *Model) renderHelp() string {
	if m.searchMode {
		return "Type ids or labels separated by commas  enter: keep  esc: clear"
	}
	return "Move: arrows/hjkl  Toggle: space  Repeats: +/-  Filter: 1-4  Search: /  Mark all: M  Copy: c  Quit: q"
}

func (m *Model) renderFooter() string {
	lines := []string{
		footerStyle.Render(truncateLine(m.renderSummary(), m.width)),
		headerStyle.Render(truncateLine(m.renderHelp(), m.width)),
	}
	switch {
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(truncateLine(m.errMsg, m.width)))
	case m.status != "":
		lines = append(lines, footerStyle.Render(truncateLine(m.status, m.width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderConfirmModal() string {
	question := "Mark every card as obtained?"
	if !m.confirmMark {
		question = "Unmark every card?"
	}
	body := []string{
		titleStyle.Render(question),
		headerStyle.Render("y: confirm / n: cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderCopyModal() string {
	tabs := make([]string, 0, len(copyModes))
	for _, mode := range copyModes {
		if mode == m.copyType {
			tabs = append(tabs, activeTabStyle.Render(string(mode)))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(string(mode)))
		}
	}
	text := m.engine.CopyText(m.copyType)
	if text == "" {
		text = NothingToCopy
	}
	innerWidth := modalInnerWidth(m.width)
	preview := wrapStyledRunes(plainRunes(text), innerWidth)
	previewLines := strings.Split(preview, "\n")
	maxPreview := maxInt(1, m.height-12)
	if len(previewLines) > maxPreview {
		previewLines = append(previewLines[:maxPreview-1], "…")
	}
	body := []string{
		titleStyle.Render("Copy cards"),
		strings.Join(tabs, "  "),
		headerStyle.Render(fmt.Sprintf("%s: %d", m.copyType, m.engine.CopyCount(m.copyType))),
		"",
		strings.Join(previewLines, "\n"),
		"",
		headerStyle.Render("o/m/r or tab: type  enter: copy  esc: close"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
