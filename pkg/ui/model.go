// Package ui implements the tq terminal browser.
package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/todoq/pkg/config"
	"github.com/vanderheijden86/todoq/pkg/debug"
	"github.com/vanderheijden86/todoq/pkg/facet"
	"github.com/vanderheijden86/todoq/pkg/metrics"
	"github.com/vanderheijden86/todoq/pkg/model"
	"github.com/vanderheijden86/todoq/pkg/query"
	"github.com/vanderheijden86/todoq/pkg/tasksort"
	"github.com/vanderheijden86/todoq/pkg/watcher"
)

// focus represents which UI element has keyboard focus
type focus int

const (
	focusList focus = iota
	focusQuery
	focusFacets
	focusHelp
)

const (
	defaultSplitRatio = 0.25
	minSidebarWidth   = 14
)

// FileChangedMsg is sent when a watched todo file changes on disk
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// ReloadFunc returns the current task list, typically by re-reading files.
type ReloadFunc func() ([]*model.Task, error)

// Model is the main Bubble Tea model for tq
type Model struct {
	theme Theme

	// Data
	all     []*model.Task
	visible []*model.Task
	source  string
	reload  ReloadFunc
	watcher *watcher.Watcher

	// Query
	query    string
	queryErr error
	input    textinput.Model

	order tasksort.Comparator

	// Facet sidebar
	dim         query.Dimension
	facets      []facet.Facet
	facetCursor int
	selected    map[string]bool // by facet label
	join        query.Join

	// List
	cursor int
	offset int

	help viewport.Model

	focus      focus
	width      int
	height     int
	splitRatio float64

	statusMsg     string
	statusIsError bool

	copyToClipboard func(string) error
}

// NewModel creates a browser over tasks. source names the list in the header.
func NewModel(tasks []*model.Task, source string) Model {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "+project @context pri due< done"
	input.CharLimit = 512

	m := Model{
		theme:           TestTheme(),
		all:             tasks,
		source:          source,
		input:           input,
		order:           tasksort.Comparator{OrderBy: tasksort.ByPriority},
		dim:             query.Project,
		selected:        make(map[string]bool),
		width:           120,
		height:          40,
		splitRatio:      defaultSplitRatio,
		copyToClipboard: clipboard.WriteAll,
	}
	m.refresh()
	return m
}

// WithConfig applies the default query, sort, facet dimension and layout
// from cfg. Invalid values keep the current setting.
func (m Model) WithConfig(cfg config.Config) Model {
	m.query = strings.TrimSpace(cfg.DefaultQuery)
	if key, err := tasksort.ParseOrderBy(cfg.Sort.OrderBy); err == nil {
		m.order.OrderBy = key
	}
	m.order.Descending = cfg.Sort.Descending
	if cfg.UI.ShowFacets != "" {
		if d, err := query.ParseDimension(cfg.UI.ShowFacets); err == nil {
			m.dim = d
		}
	}
	if cfg.UI.SplitRatio > 0 {
		m.splitRatio = cfg.UI.SplitRatio
	}
	m.refresh()
	return m
}

// WithReload sets the function used to reload tasks on file change.
func (m Model) WithReload(fn ReloadFunc) Model {
	m.reload = fn
	return m
}

// WithWatcher makes the model reload whenever w reports a change.
func (m Model) WithWatcher(w *watcher.Watcher) Model {
	m.watcher = w
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchFileCmd(m.watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 4
		if m.focus == focusHelp {
			m.help.Width = m.width - 2
			m.help.Height = m.bodyHeight()
		}
		m.ensureVisible()
		return m, nil

	case FileChangedMsg:
		m.reloadTasks()
		if m.watcher != nil {
			return m, WatchFileCmd(m.watcher)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.focus {
		case focusQuery:
			return m.handleQueryKeys(msg)
		case focusHelp:
			return m.handleHelpKeys(msg)
		case focusFacets:
			if handled := m.handleFacetKeys(msg); handled {
				return m, nil
			}
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.input.Blur()
		m.focus = focusList
		m.SetQuery(m.input.Value())
		return m, nil
	case "esc":
		m.input.Blur()
		m.input.SetValue(m.query)
		m.focus = focusList
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.focus = focusList
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

// handleFacetKeys reports whether the key was consumed by the sidebar.
func (m *Model) handleFacetKeys(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "j", "down":
		if m.facetCursor < len(m.facets)-1 {
			m.facetCursor++
		}
	case "k", "up":
		if m.facetCursor > 0 {
			m.facetCursor--
		}
	case " ", "space":
		if m.facetCursor < len(m.facets) {
			label := m.facets[m.facetCursor].Label
			if m.selected[label] {
				delete(m.selected, label)
			} else {
				m.selected[label] = true
			}
		}
	case "a":
		m.join = query.JoinAnd
	case "o":
		m.join = query.JoinOr
	case "enter":
		m.applyFacetSelection()
	case "tab":
		m.cycleDimension()
	case "esc":
		clear(m.selected)
		m.focus = focusList
	default:
		return false
	}
	return true
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	m.statusIsError = false

	page := m.bodyHeight()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.focus = focusQuery
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "tab":
		m.focus = focusFacets
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "pgdown", "ctrl+d":
		m.moveCursor(page)
	case "pgup", "ctrl+u":
		m.moveCursor(-page)
	case "g", "home":
		m.moveCursor(-len(m.visible))
	case "G", "end":
		m.moveCursor(len(m.visible))
	case "s":
		m.order.OrderBy = m.order.OrderBy.Next()
		m.applySort()
		m.setStatus(fmt.Sprintf("Sort: %s", m.sortLabel()), false)
	case "r":
		m.order.Descending = !m.order.Descending
		m.applySort()
		m.setStatus(fmt.Sprintf("Sort: %s", m.sortLabel()), false)
	case "y":
		m.copyQuery()
	case "?":
		m.showHelp()
	case "esc":
		if m.query != "" {
			m.SetQuery("")
		}
	}
	return m, nil
}

// SetQuery replaces the active query and recomputes the list.
// An empty query shows every task; a malformed one shows none.
func (m *Model) SetQuery(q string) {
	m.query = strings.TrimSpace(q)
	m.cursor, m.offset = 0, 0
	m.refresh()
	if m.queryErr != nil {
		m.setStatus(fmt.Sprintf("Invalid query: %v", m.queryErr), true)
	}
}

func (m *Model) refresh() {
	if m.query == "" {
		m.queryErr = nil
		m.visible = tasksort.Sorted(m.all, m.order.OrderBy, m.order.Descending)
	} else {
		m.queryErr = query.Validate(m.query)
		m.visible = query.Filter(m.all, m.query)
		m.applySort()
	}
	m.facets = facet.Aggregate(m.all, m.dim)
	if m.facetCursor >= len(m.facets) {
		m.facetCursor = max(0, len(m.facets)-1)
	}
	m.moveCursor(0)
}

func (m *Model) applySort() {
	tasksort.Sort(m.visible, m.order.OrderBy, m.order.Descending)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m *Model) cycleDimension() {
	i := slices.Index(query.Dimensions, m.dim)
	m.dim = query.Dimensions[(i+1)%len(query.Dimensions)]
	clear(m.selected)
	m.facetCursor = 0
	m.facets = facet.Aggregate(m.all, m.dim)
}

func (m *Model) applyFacetSelection() {
	keys := m.SelectedKeys()
	if len(keys) == 0 {
		m.setStatus("No facets selected", true)
		return
	}
	m.focus = focusList
	m.SetQuery(query.MakeQuery(keys, m.join, m.dim))
}

func (m *Model) copyQuery() {
	if m.query == "" {
		m.setStatus("No query to copy", true)
		return
	}
	if err := m.copyToClipboard(m.query); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus("Copied query to clipboard", false)
}

func (m *Model) showHelp() {
	m.help = viewport.New(m.width-2, m.bodyHeight())
	m.help.SetContent(renderHelp(m.width - 6))
	m.focus = focusHelp
}

func (m *Model) reloadTasks() {
	if m.reload == nil {
		return
	}
	start := time.Now()
	tasks, err := m.reload()
	if err != nil {
		m.setStatus(fmt.Sprintf("Reload error: %v", err), true)
		return
	}
	m.all = tasks
	m.refresh()
	debug.LogTiming("ui.reload", time.Since(start))
	m.setStatus(fmt.Sprintf("Reloaded %d tasks", len(tasks)), false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

func (m Model) sortLabel() string {
	arrow := "↑"
	if m.order.Descending {
		arrow = "↓"
	}
	return string(m.order.OrderBy) + " " + arrow
}

// ══════════════════════════════════════════════════════════════════════════════
// Layout
// ══════════════════════════════════════════════════════════════════════════════

// bodyHeight is the number of rows inside the panels: the header, query bar
// and footer take one row each, the panel borders two.
func (m Model) bodyHeight() int {
	return max(1, m.height-5)
}

func (m Model) sidebarWidth() int {
	return max(minSidebarWidth, int(float64(m.width)*m.splitRatio))
}

func (m Model) listWidth() int {
	return max(10, m.width-m.sidebarWidth()-4)
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	header := m.renderHeader()
	footer := m.renderFooter()
	if m.focus == focusHelp {
		body := FocusedPanelStyle.Width(m.width - 2).Render(m.help.View())
		return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	}

	sidebarStyle, listStyle := PanelStyle, FocusedPanelStyle
	if m.focus == focusFacets {
		sidebarStyle, listStyle = FocusedPanelStyle, PanelStyle
	}
	sidebar := sidebarStyle.Width(m.sidebarWidth()).Height(m.bodyHeight()).Render(m.renderSidebar())
	list := listStyle.Width(m.listWidth()).Height(m.bodyHeight()).Render(m.renderList())
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, list)

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderQueryBar(), body, footer)
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("tq")
	info := fmt.Sprintf(" %s  %d/%d tasks  sort: %s", m.source, len(m.visible), len(m.all), m.sortLabel())
	return title + m.theme.MutedText.Render(truncate(info, max(0, m.width-6)))
}

func (m Model) renderQueryBar() string {
	switch {
	case m.focus == focusQuery:
		return m.input.View()
	case m.query == "":
		return m.theme.MutedText.Render("/ (no filter)")
	case m.queryErr != nil:
		return m.theme.ErrorText.Render("/ "+m.query) + m.theme.MutedText.Render("  malformed, matches nothing")
	default:
		return m.theme.InfoText.Render("/ " + m.query)
	}
}

func (m Model) renderSidebar() string {
	w := m.sidebarWidth()
	join := "AND"
	if m.join == query.JoinOr {
		join = "OR"
	}
	lines := []string{m.theme.PrimaryBold.Render(truncate(fmt.Sprintf("%s (%s)", strings.ToUpper(m.dim.String()), join), w))}

	rows := m.bodyHeight() - 1
	start := 0
	if m.facetCursor >= rows {
		start = m.facetCursor - rows + 1
	}
	for i := start; i < len(m.facets) && i < start+rows; i++ {
		f := m.facets[i]
		mark := "[ ]"
		if m.selected[f.Label] {
			mark = m.theme.FacetMark.Render("[x]")
		}
		count := fmt.Sprintf("%d", f.Count)
		label := padRight(truncate(f.Label, max(1, w-len(count)-5)), max(1, w-len(count)-5))
		row := mark + " " + label + " " + count
		if m.focus == focusFacets && i == m.facetCursor {
			row = m.theme.Selected.Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderList() string {
	if len(m.visible) == 0 {
		if m.queryErr != nil {
			return m.theme.ErrorText.Render("Invalid query: " + m.queryErr.Error())
		}
		return m.theme.MutedText.Render("No matching tasks")
	}

	w := m.listWidth()
	h := m.bodyHeight()
	lines := make([]string, 0, h)
	for i := m.offset; i < len(m.visible) && i < m.offset+h; i++ {
		t := m.visible[i]
		text := truncate(t.Line(), max(1, w-6))
		prefix := "  "
		if i == m.cursor {
			prefix = m.theme.PrimaryBold.Render("▸ ")
			text = m.theme.Selected.Render(text)
		} else {
			text = m.theme.RowStyle(t).Render(text)
		}
		lines = append(lines, prefix+RenderPriorityBadge(t.Priority())+RenderDueBadge(t.DueStatus())+" "+text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		if m.statusIsError {
			return m.theme.ErrorText.Render(m.statusMsg)
		}
		return m.theme.InfoText.Render(m.statusMsg)
	}
	hints := "/ query  tab facets  space select  a/o and/or  s sort  r reverse  y copy  ? help  q quit"
	return m.theme.MutedText.Render(truncate(hints, m.width))
}

// ══════════════════════════════════════════════════════════════════════════════
// Accessors
// ══════════════════════════════════════════════════════════════════════════════

func (m Model) Query() string               { return m.query }
func (m Model) QueryError() error           { return m.queryErr }
func (m Model) VisibleTasks() []*model.Task { return m.visible }
func (m Model) Order() tasksort.Comparator  { return m.order }
func (m Model) Dimension() query.Dimension  { return m.dim }
func (m Model) Facets() []facet.Facet       { return m.facets }
func (m Model) JoinMode() query.Join        { return m.join }
func (m Model) Cursor() int                 { return m.cursor }
func (m Model) Status() (string, bool)      { return m.statusMsg, m.statusIsError }

// SelectedTask returns the task under the cursor, or nil for an empty list.
func (m Model) SelectedTask() *model.Task {
	if m.cursor < len(m.visible) {
		return m.visible[m.cursor]
	}
	return nil
}

// SelectedKeys returns the selected facet keys in sidebar order.
func (m Model) SelectedKeys() []query.Key {
	var keys []query.Key
	for _, f := range m.facets {
		if m.selected[f.Label] {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// FocusState names the focused element.
func (m Model) FocusState() string {
	switch m.focus {
	case focusQuery:
		return "query"
	case focusFacets:
		return "facets"
	case focusHelp:
		return "help"
	default:
		return "list"
	}
}
