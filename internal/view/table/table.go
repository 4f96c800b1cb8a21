// Package table renders a paginated, sortable, searchable list backed by a
// controller.Controller. The table never derives anything itself: every key
// becomes a controller intent and the returned snapshot is drawn as-is.
package table

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/panel/internal/controller"
	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/selection"
	"github.com/abelbrown/panel/internal/view/styles"
)

// Column describes one table column.
type Column struct {
	Title string
	Field string // sort key; empty makes the column unsortable
	Width int

	// Text renders the cell. nil renders the field's text form.
	Text func(r record.Record) string
	// Color optionally tints the cell with a hex color.
	Color func(r record.Record) string
}

func (c Column) text(r record.Record) string {
	if c.Text != nil {
		return c.Text(r)
	}
	return r.Field(c.Field).Text()
}

// Config configures a table.
type Config struct {
	Columns []Column
	// Categories are the values "s" cycles through after "all".
	Categories    []string
	CategoryLabel string
	Placeholder   string
	Empty         string
}

// Model is the table view model.
type Model struct {
	ctrl   *controller.Controller
	cfg    Config
	snap   controller.Snapshot
	search Search
	width  int
	height int
}

// New creates a table over ctrl.
func New(ctrl *controller.Controller, cfg Config) Model {
	if cfg.Empty == "" {
		cfg.Empty = "Nothing to show."
	}
	return Model{
		ctrl:   ctrl,
		cfg:    cfg,
		snap:   ctrl.Snapshot(),
		search: NewSearch(cfg.Placeholder),
	}
}

// Snapshot returns the snapshot being drawn.
func (m Model) Snapshot() controller.Snapshot {
	return m.snap
}

// Controller returns the backing controller.
func (m Model) Controller() *controller.Controller {
	return m.ctrl
}

// SetRecords hands a freshly loaded collection to the controller.
func (m *Model) SetRecords(records []record.Record, version uint64) {
	m.snap = m.ctrl.SetRecords(records, version)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Searching reports whether the search box has focus. Parents should route
// every key to the table while it does.
func (m Model) Searching() bool {
	return m.search.Active()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.search.Active() {
		var cmd tea.Cmd
		m.search, cmd, _ = m.search.Update(keyMsg)
		m.snap = m.ctrl.SetQuery(m.search.Value())
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, keys.Search):
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(keyMsg, keys.Down):
		m.snap = m.ctrl.MoveNext()
	case key.Matches(keyMsg, keys.Up):
		m.snap = m.ctrl.MovePrevious()
	case key.Matches(keyMsg, keys.NextPage):
		m.snap = m.ctrl.NextPage()
	case key.Matches(keyMsg, keys.PrevPage):
		m.snap = m.ctrl.PrevPage()
	case key.Matches(keyMsg, keys.Toggle):
		m.snap = m.ctrl.ToggleCursor()
	case key.Matches(keyMsg, keys.ToggleAll):
		m.snap = m.ctrl.ToggleAll()
	case key.Matches(keyMsg, keys.Clear):
		m.snap = m.ctrl.ClearSelection()
	case key.Matches(keyMsg, keys.Category):
		m.snap = m.ctrl.SetCategory(m.nextCategory())
	case key.Matches(keyMsg, keys.Grow):
		m.snap = m.ctrl.SetPageSize(m.snap.Page.Size + pageSizeStep)
	case key.Matches(keyMsg, keys.Shrink):
		if m.snap.Page.Size > pageSizeStep {
			m.snap = m.ctrl.SetPageSize(m.snap.Page.Size - pageSizeStep)
		}
	case key.Matches(keyMsg, keys.Sort):
		if col, ok := m.sortColumn(keyMsg.String()); ok {
			m.snap = m.ctrl.ToggleSort(col.Field)
		}
	}
	return m, nil
}

const pageSizeStep = 5

// nextCategory returns the value after the current one, wrapping to "all".
func (m Model) nextCategory() string {
	cycle := append([]string{filter.AllCategories}, m.cfg.Categories...)
	cur := m.snap.Category
	if cur == "" {
		cur = filter.AllCategories
	}
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return filter.AllCategories
}

// sortColumn maps "1".."9" to a sortable column.
func (m Model) sortColumn(k string) (Column, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return Column{}, false
	}
	i := int(k[0] - '1')
	if i >= len(m.cfg.Columns) || m.cfg.Columns[i].Field == "" {
		return Column{}, false
	}
	return m.cfg.Columns[i], true
}

func (m Model) isMulti() bool {
	return m.ctrl.Mode() == controller.MultiSelect
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	if s := m.search.View(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.snap.Page.Total == 0 {
		b.WriteString(styles.Help.Render(m.cfg.Empty))
		b.WriteString("\n")
	} else {
		for _, r := range m.snap.VisibleItems {
			b.WriteString(m.renderRow(r))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	cells := make([]string, 0, len(m.cfg.Columns)+1)
	if m.isMulti() {
		cells = append(cells, styles.Checkbox(m.snap.Header == selection.All, m.snap.Header == selection.Some))
	}
	for i, col := range m.cfg.Columns {
		title := col.Title
		if col.Field != "" {
			title = fmt.Sprintf("%d %s", i+1, title)
			if m.snap.Sort.Field == col.Field {
				title += sortArrow(m.snap.Sort.Dir)
			}
		}
		cells = append(cells, styles.Pad(title, col.Width))
	}
	return "  " + styles.ColumnHeader.Render(strings.Join(cells, " "))
}

func sortArrow(d order.Direction) string {
	if d == order.Desc {
		return " ▼"
	}
	return " ▲"
}

func (m Model) renderRow(r record.Record) string {
	focused := r.ID == m.snap.Cursor
	selected := m.snap.IsSelected(r.ID)

	cells := make([]string, 0, len(m.cfg.Columns)+1)
	if m.isMulti() {
		cells = append(cells, styles.Checkbox(selected, false))
	}
	for _, col := range m.cfg.Columns {
		cell := styles.Pad(col.text(r), col.Width)
		if col.Color != nil && !focused {
			cell = lipgloss.NewStyle().Foreground(lipgloss.Color(col.Color(r))).Render(cell)
		}
		cells = append(cells, cell)
	}
	line := strings.Join(cells, " ")

	switch {
	case focused:
		return styles.RowCursor.Render("› " + line)
	case selected:
		return styles.RowSelected.Render("  " + line)
	default:
		return styles.Row.Render("  " + line)
	}
}

func (m Model) renderFooter() string {
	p := m.snap.Page
	parts := []string{
		fmt.Sprintf("%d-%d of %d", p.From, p.To, p.Total),
		fmt.Sprintf("page %d/%d", p.Index+1, p.Count),
	}
	if m.isMulti() {
		parts = append(parts, fmt.Sprintf("%d selected", len(m.snap.Selection)))
	}
	if m.cfg.CategoryLabel != "" {
		cat := m.snap.Category
		if cat == "" {
			cat = filter.AllCategories
		}
		parts = append(parts, fmt.Sprintf("%s: %s", m.cfg.CategoryLabel, cat))
	}
	return styles.Muted.Render("  " + strings.Join(parts, " · "))
}

// Help lists the table's key hints.
func (m Model) Help() string {
	hints := "j/k move  ←/→ page  / search  1-9 sort  +/- page size"
	if m.isMulti() {
		hints += "  space select  a page  x clear"
	}
	if m.cfg.CategoryLabel != "" {
		hints += "  s " + m.cfg.CategoryLabel
	}
	return hints
}

// Key bindings
var keys = struct {
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Clear     key.Binding
	Search    key.Binding
	Category  key.Binding
	Grow      key.Binding
	Shrink    key.Binding
	Sort      key.Binding
}{
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	PrevPage:  key.NewBinding(key.WithKeys("left", "h")),
	NextPage:  key.NewBinding(key.WithKeys("right", "l")),
	Toggle:    key.NewBinding(key.WithKeys(" ", "space")),
	ToggleAll: key.NewBinding(key.WithKeys("a")),
	Clear:     key.NewBinding(key.WithKeys("x")),
	Search:    key.NewBinding(key.WithKeys("/")),
	Category:  key.NewBinding(key.WithKeys("s")),
	Grow:      key.NewBinding(key.WithKeys("+", "=")),
	Shrink:    key.NewBinding(key.WithKeys("-")),
	Sort:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9")),
}
