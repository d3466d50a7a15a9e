package app

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"tunedex/internal/catalog"
	"tunedex/internal/db"
	"tunedex/internal/ingest"
	"tunedex/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen identifies which main content panel is shown.
type Screen int

const (
	ScreenBrowse Screen = iota
	ScreenDetail
	ScreenStats
	ScreenImport
)

// InputMode tracks which prompt the text input is collecting for.
type InputMode int

const (
	InputNone InputMode = iota
	InputSearch
	InputRhythm
	InputBook
)

// Model is the root bubbletea model for the tunedex TUI.
type Model struct {
	// Configuration
	booksDir string
	dbPath   string

	// Catalog state. view is the full loaded snapshot; rows is what the
	// browse table shows after filters, in original row order.
	view       catalog.View
	rows       catalog.View
	filterDesc string

	// Navigation
	screen       Screen
	selected     int
	scroll       int
	detailScroll int

	// Prompt
	inputMode InputMode
	input     textinput.Model

	// Import
	importing  bool
	lastImport *ingest.Result

	// UI state
	width  int
	height int

	errorMessage string
	statusText   string
}

// New creates a Model pointing at the given books directory and catalog file.
func New(booksDir, dbPath string) Model {
	ti := textinput.New()
	ti.CharLimit = 64

	return Model{
		booksDir:   booksDir,
		dbPath:     dbPath,
		input:      ti,
		statusText: "Loading catalog...",
	}
}

// Init returns the initial command — load the persisted catalog.
func (m Model) Init() tea.Cmd {
	return loadViewCmd(m.dbPath)
}

// loadViewCmd loads the whole catalog into a fresh view. A missing database
// file is an empty catalog, not an error.
func loadViewCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(dbPath); err != nil {
			return ViewLoadedMsg{}
		}

		store, err := db.Open(dbPath)
		if err != nil {
			return ViewLoadedMsg{Err: err}
		}
		defer store.Close()

		tunes, err := store.LoadAll()
		if err != nil {
			return ViewLoadedMsg{Err: err}
		}
		return ViewLoadedMsg{View: tunes}
	}
}

// importCmd discards the catalog file and re-scans the books directory.
func importCmd(booksDir, dbPath string) tea.Cmd {
	return func() tea.Msg {
		store, err := db.Recreate(dbPath)
		if err != nil {
			return ImportDoneMsg{Err: err}
		}
		defer store.Close()

		res, err := ingest.Run(os.DirFS(booksDir), store)
		return ImportDoneMsg{Result: res, Err: err}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewLoadedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.statusText = "Catalog load failed"
			return m, nil
		}
		m.view = msg.View
		m.clearFilter()
		if len(m.view) == 0 {
			m.statusText = "Catalog is empty. Press r to import."
		} else {
			m.statusText = fmt.Sprintf("%d tunes from %d books", len(m.view), catalog.DistinctBooks(m.view))
		}
		return m, nil

	case ImportDoneMsg:
		m.importing = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.statusText = "Import failed"
			return m, nil
		}
		res := msg.Result
		m.lastImport = &res
		m.screen = ScreenImport
		m.statusText = fmt.Sprintf("Imported %d tunes", res.Total)
		// Reload so the view reflects the new catalog.
		return m, loadViewCmd(m.dbPath)
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != InputNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit

	case KeyEsc:
		switch m.screen {
		case ScreenBrowse:
			m.clearFilter()
		default:
			m.screen = ScreenBrowse
		}
		return m, nil

	case KeyImport:
		if m.importing {
			return m, nil
		}
		m.importing = true
		m.errorMessage = ""
		m.statusText = "Scanning " + m.booksDir + "..."
		return m, importCmd(m.booksDir, m.dbPath)

	case KeyStats:
		m.screen = ScreenStats
		return m, nil

	case KeySearch:
		return m.openPrompt(InputSearch, "title contains"), textinput.Blink

	case KeyRhythm:
		return m.openPrompt(InputRhythm, "rhythm contains"), textinput.Blink

	case KeyBook:
		return m.openPrompt(InputBook, "book number"), textinput.Blink

	case KeyJ, KeyDown:
		m.moveSelection(1)
		return m, nil

	case KeyK, KeyUp:
		m.moveSelection(-1)
		return m, nil

	case KeyEnter:
		if m.screen == ScreenBrowse && m.selected < len(m.rows) {
			m.screen = ScreenDetail
			m.detailScroll = 0
		}
		return m, nil
	}

	return m, nil
}

// handlePromptKey routes keys to the text input until the prompt is applied
// or cancelled.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		return m, tea.Quit

	case KeyEsc:
		m.inputMode = InputNone
		m.input.Blur()
		return m, nil

	case KeyEnter:
		mode := m.inputMode
		value := strings.TrimSpace(m.input.Value())
		m.inputMode = InputNone
		m.input.Blur()
		m.applyFilter(mode, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openPrompt(mode InputMode, prompt string) Model {
	m.screen = ScreenBrowse
	m.inputMode = mode
	m.input.Prompt = prompt + ": "
	m.input.SetValue("")
	m.input.Focus()
	return m
}

// applyFilter replaces the visible rows with a filtered subset of the full
// view. An empty value clears the filter.
func (m *Model) applyFilter(mode InputMode, value string) {
	if value == "" {
		m.clearFilter()
		return
	}

	switch mode {
	case InputSearch:
		m.rows = catalog.SearchTitle(m.view, value)
		m.filterDesc = fmt.Sprintf("title ~ %q", value)
	case InputRhythm:
		m.rows = catalog.FilterByRhythm(m.view, value)
		m.filterDesc = fmt.Sprintf("rhythm ~ %q", value)
	case InputBook:
		bookID, err := strconv.Atoi(value)
		if err != nil {
			m.errorMessage = fmt.Sprintf("book number must be an integer, got %q", value)
			return
		}
		m.rows = catalog.FilterByBook(m.view, bookID)
		m.filterDesc = fmt.Sprintf("book = %d", bookID)
	default:
		return
	}

	m.errorMessage = ""
	m.selected = 0
	m.scroll = 0
}

func (m *Model) clearFilter() {
	m.rows = m.view
	m.filterDesc = ""
	m.selected = 0
	m.scroll = 0
}

func (m *Model) moveSelection(delta int) {
	switch m.screen {
	case ScreenBrowse:
		if len(m.rows) == 0 {
			return
		}
		m.selected += delta
		if m.selected < 0 {
			m.selected = 0
		}
		if m.selected >= len(m.rows) {
			m.selected = len(m.rows) - 1
		}
		// Keep the selection inside the visible window.
		visible := m.tableVisibleRows()
		if m.selected < m.scroll {
			m.scroll = m.selected
		}
		if m.selected >= m.scroll+visible {
			m.scroll = m.selected - visible + 1
		}
	case ScreenDetail:
		m.detailScroll += delta
		if m.detailScroll < 0 {
			m.detailScroll = 0
		}
	}
}

func (m Model) tableVisibleRows() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + column header(1) +
	// divider(1) + prompt/error(1) + footer(1)
	reserved := 7
	return max(5, m.height-reserved)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.screen {
	case ScreenDetail:
		sections = append(sections, m.renderDetail())
	case ScreenStats:
		sections = append(sections, m.renderStats())
	case ScreenImport:
		sections = append(sections, m.renderImport())
	default:
		sections = append(sections, m.renderTable())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.inputMode != InputNone {
		sections = append(sections, m.input.View())
	} else if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(m.errorMessage))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("TUNEDEX")
	info := ui.DimStyle.Render(" — " + m.dbPath)
	return title + info
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.importing {
		parts = append(parts, ui.CountStyle.Render("⟳ importing"))
	}
	parts = append(parts, ui.DimStyle.Render(m.statusText))
	if m.filterDesc != "" {
		parts = append(parts, ui.HeaderRowStyle.Render("["+m.filterDesc+"]"))
	}

	return strings.Join(parts, "  ")
}

// Column widths for the browse table. Title takes the remaining space.
const (
	colBook   = 5
	colRef    = 7
	colRhythm = 14
	colKey    = 8
)

func (m Model) renderTable() string {
	var lines []string

	header := padRight(ui.HeaderRowStyle.Render("BOOK"), colBook) +
		padRight(ui.HeaderRowStyle.Render("REF"), colRef) +
		padRight(ui.HeaderRowStyle.Render("TITLE"), m.titleColWidth()) +
		padRight(ui.HeaderRowStyle.Render("RHYTHM"), colRhythm) +
		padRight(ui.HeaderRowStyle.Render("KEY"), colKey)
	lines = append(lines, header)

	visible := m.tableVisibleRows()

	if len(m.rows) == 0 {
		lines = append(lines, "")
		if len(m.view) == 0 {
			lines = append(lines, ui.DimStyle.Render("  Catalog is empty. Press r to import "+m.booksDir))
		} else {
			lines = append(lines, ui.DimStyle.Render("  No tunes match. Press Esc to clear the filter."))
		}
	} else {
		end := m.scroll + visible
		if end > len(m.rows) {
			end = len(m.rows)
		}
		for i := m.scroll; i < end; i++ {
			lines = append(lines, m.renderRow(i))
		}
	}

	for len(lines) < visible+1 {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderRow(i int) string {
	t := m.rows[i]

	row := padRight(strconv.Itoa(t.BookID), colBook) +
		padRight(truncateToWidth(t.Ref, colRef-1), colRef) +
		padRight(truncateToWidth(t.Title, m.titleColWidth()-1), m.titleColWidth()) +
		padRight(truncateToWidth(t.Rhythm, colRhythm-1), colRhythm) +
		truncateToWidth(t.Key, colKey)

	if i == m.selected {
		return ui.SelectedStyle.Render("> " + row)
	}
	return "  " + row
}

func (m Model) titleColWidth() int {
	return max(12, m.width-colBook-colRef-colRhythm-colKey-2)
}

func (m Model) renderDetail() string {
	if m.selected >= len(m.rows) {
		return ui.DimStyle.Render("  Nothing selected.")
	}
	t := m.rows[m.selected]

	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render(t.Title)+
		ui.DimStyle.Render(fmt.Sprintf("  book %d · ref %s · %s · %s", t.BookID, t.Ref, t.Rhythm, t.Key)))
	lines = append(lines, "")

	content := strings.Split(strings.TrimRight(t.Content, "\n"), "\n")
	visible := m.tableVisibleRows() - 2

	start := m.detailScroll
	if start > max(0, len(content)-1) {
		start = max(0, len(content)-1)
	}
	end := start + visible
	if end > len(content) {
		end = len(content)
	}
	for _, line := range content[start:end] {
		lines = append(lines, "  "+truncateToWidth(line, m.width-2))
	}

	for len(lines) < visible+2 {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderStats() string {
	var lines []string

	lines = append(lines, ui.PanelTitleActiveStyle.Render("STATISTICS"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  Total tunes:  %s", ui.CountStyle.Render(strconv.Itoa(len(m.view)))))
	lines = append(lines, fmt.Sprintf("  Books:        %s", ui.CountStyle.Render(strconv.Itoa(catalog.DistinctBooks(m.view)))))
	lines = append(lines, "")
	lines = append(lines, ui.PanelTitleStyle.Render("  KEY DISTRIBUTION"))

	top := catalog.TopKeys(m.view, 10)
	if len(top) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No data to plot."))
	} else {
		lines = append(lines, renderKeyChart(top, m.width)...)
	}

	visible := m.tableVisibleRows() + 1
	for len(lines) < visible {
		lines = append(lines, "")
	}
	if len(lines) > visible {
		lines = lines[:visible]
	}

	return strings.Join(lines, "\n")
}

// renderKeyChart draws a horizontal bar per key, scaled to the largest count.
func renderKeyChart(top []catalog.KeyCount, width int) []string {
	const labelWidth = 10

	barMax := max(10, width-labelWidth-10)
	most := top[0].Count

	var lines []string
	for _, kc := range top {
		barLen := kc.Count * barMax / most
		if barLen < 1 {
			barLen = 1
		}
		lines = append(lines, "  "+
			padRight(ui.BarLabelStyle.Render(truncateToWidth(kc.Key, labelWidth-1)), labelWidth)+
			ui.BarStyle.Render(strings.Repeat("█", barLen))+
			ui.DimStyle.Render(" "+strconv.Itoa(kc.Count)))
	}
	return lines
}

func (m Model) renderImport() string {
	var lines []string

	lines = append(lines, ui.PanelTitleActiveStyle.Render("IMPORT"))
	lines = append(lines, "")

	if m.lastImport == nil {
		lines = append(lines, ui.DimStyle.Render("  No import has run yet. Press r to start one."))
	} else {
		res := m.lastImport
		lines = append(lines, fmt.Sprintf("  Imported %s tunes from %s",
			ui.CountStyle.Render(strconv.Itoa(res.Total)), m.booksDir))
		for _, bookID := range sortedBooks(res.Books) {
			lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("    book %d: %d tunes", bookID, res.Books[bookID])))
		}
		if len(res.Diagnostics) > 0 {
			lines = append(lines, "")
			lines = append(lines, ui.DiagStyle.Render(fmt.Sprintf("  %d sources skipped:", len(res.Diagnostics))))
			for _, diag := range res.Diagnostics {
				lines = append(lines, ui.DiagStyle.Render("    "+truncateToWidth(diag, m.width-4)))
			}
		}
	}

	visible := m.tableVisibleRows() + 1
	for len(lines) < visible {
		lines = append(lines, "")
	}
	if len(lines) > visible {
		lines = lines[:visible]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var parts []string

	switch m.screen {
	case ScreenBrowse:
		parts = append(parts, ui.FooterKeyStyle.Render("/")+ui.FooterDescStyle.Render(" Title"))
		parts = append(parts, ui.FooterKeyStyle.Render("f")+ui.FooterDescStyle.Render(" Rhythm"))
		parts = append(parts, ui.FooterKeyStyle.Render("b")+ui.FooterDescStyle.Render(" Book"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" View"))
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
	default:
		parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Back"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Stats"))
	parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Rescan"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func sortedBooks(books map[int]int) []int {
	ids := make([]int, 0, len(books))
	for id := range books {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

