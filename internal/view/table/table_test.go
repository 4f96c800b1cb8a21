package table

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/panel/internal/controller"
	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/selection"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// customers returns n customers c00.., cycling through the known statuses.
func customers(n int) []record.Record {
	items := make([]record.Record, n)
	for i := range items {
		items[i] = dashboard.Customer{
			ID:     fmt.Sprintf("c%02d", i),
			Name:   fmt.Sprintf("Customer %02d", i),
			Email:  fmt.Sprintf("customer%02d@example.com", i),
			Status: dashboard.CustomerStatuses[i%len(dashboard.CustomerStatuses)],
		}.ToRecord()
	}
	return items
}

func newTable(t *testing.T, mode controller.Mode, n int) Model {
	t.Helper()
	ctrl := controller.New(controller.Options{
		Name:          "customers",
		Mode:          mode,
		SearchFields:  dashboard.Customers.SearchFields(),
		CategoryField: "status",
		PageSize:      10,
	})
	m := New(ctrl, Config{
		Columns: []Column{
			{Title: "Name", Field: "name", Width: 16},
			{Title: "Email", Field: "email", Width: 24},
			{Title: "Status", Field: "status", Width: 12,
				Color: func(r record.Record) string { return dashboard.StatusBadge(r.Field("status").Text()).Color }},
		},
		Categories:    dashboard.CustomerStatuses,
		CategoryLabel: "status",
	})
	m.SetRecords(customers(n), 1)
	return m
}

func TestTableInitialPage(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 25)
	snap := m.Snapshot()

	assert.Len(t, snap.VisibleItems, 10)
	assert.Equal(t, 3, snap.Page.Count)
	assert.Contains(t, m.View(), "1-10 of 25")
	assert.Contains(t, m.View(), "page 1/3")
}

func TestTableEmpty(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 0)
	assert.Contains(t, m.View(), "Nothing to show.")
}

func TestTableMultiSelect(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 25)

	m = press(m, runes("j"), runes(" "))
	assert.Equal(t, []string{"c00"}, m.Snapshot().Selection)
	assert.Equal(t, selection.Some, m.Snapshot().Header)

	m = press(m, runes("a"))
	assert.Len(t, m.Snapshot().Selection, 10)
	assert.Equal(t, selection.All, m.Snapshot().Header)
	assert.Contains(t, m.View(), "[x]")

	// the next page has nothing selected yet
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.Snapshot().Page.Index)
	assert.Equal(t, selection.None, m.Snapshot().Header)
	assert.Len(t, m.Snapshot().Selection, 10)

	m = press(m, runes("x"))
	assert.Empty(t, m.Snapshot().Selection)
}

func TestTablePaging(t *testing.T) {
	m := newTable(t, controller.SingleSelect, 25)

	m = press(m, runes("l"), runes("l"), runes("l"))
	assert.Equal(t, 2, m.Snapshot().Page.Index)
	assert.Len(t, m.Snapshot().VisibleItems, 5)

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, m.Snapshot().Page.Index)

	m = press(m, runes("+"))
	assert.Equal(t, 15, m.Snapshot().Page.Size)
	m = press(m, runes("-"), runes("-"), runes("-"))
	assert.Equal(t, 5, m.Snapshot().Page.Size)
}

func TestTableSearch(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 25)

	m = press(m, runes("/"))
	require.True(t, m.Searching())

	m = typeText(m, "customer07")
	assert.True(t, m.Searching())
	require.Equal(t, 1, m.Snapshot().Page.Total)
	assert.Equal(t, "c07", m.Snapshot().VisibleItems[0].ID)

	// enter keeps the query
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "customer07", m.Snapshot().Query)
	assert.Contains(t, m.View(), "customer07")

	// esc clears it
	m = press(m, runes("/"), tea.KeyMsg{Type: tea.KeyEscape})
	assert.False(t, m.Searching())
	assert.Equal(t, 25, m.Snapshot().Page.Total)
}

func TestTableSearchKeysDoNotNavigate(t *testing.T) {
	m := newTable(t, controller.SingleSelect, 25)
	m = press(m, runes("/"))
	m = typeText(m, "j")
	assert.Empty(t, m.Snapshot().Cursor)
}

func TestTableCategoryCycle(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 30)

	m = press(m, runes("s"))
	assert.Equal(t, dashboard.StatusSubscribed, m.Snapshot().Category)
	assert.Equal(t, 10, m.Snapshot().Page.Total)
	for _, r := range m.Snapshot().VisibleItems {
		assert.Equal(t, dashboard.StatusSubscribed, r.Field("status").Text())
	}

	m = press(m, runes("s"), runes("s"))
	assert.Equal(t, dashboard.StatusBounced, m.Snapshot().Category)

	m = press(m, runes("s"))
	assert.Equal(t, 30, m.Snapshot().Page.Total)
	assert.Contains(t, m.View(), "status: all")
}

func TestTableSortKeys(t *testing.T) {
	m := newTable(t, controller.SingleSelect, 12)

	m = press(m, runes("1"))
	assert.Equal(t, order.Spec{Field: "name", Dir: order.Asc}, m.Snapshot().Sort)
	assert.Contains(t, m.View(), "1 Name ▲")

	m = press(m, runes("1"))
	assert.Equal(t, order.Desc, m.Snapshot().Sort.Dir)
	assert.Equal(t, "c11", m.Snapshot().VisibleItems[0].ID)

	m = press(m, runes("1"))
	assert.True(t, m.Snapshot().Sort.None())

	// no fourth column
	m = press(m, runes("4"))
	assert.True(t, m.Snapshot().Sort.None())
}

func TestTableSingleSelectCursor(t *testing.T) {
	m := newTable(t, controller.SingleSelect, 12)

	m = press(m, runes("j"), runes("j"), runes("k"))
	assert.Equal(t, "c00", m.Snapshot().Cursor)
	assert.Equal(t, []string{"c00"}, m.Snapshot().Selection)
	assert.Contains(t, m.View(), "›")
	assert.NotContains(t, m.View(), "[ ]")
}

func TestTableRefreshKeepsSelection(t *testing.T) {
	m := newTable(t, controller.MultiSelect, 12)
	m = press(m, runes("j"), runes(" "))

	m.SetRecords(customers(12)[:5], 2)
	assert.Equal(t, []string{"c00"}, m.Snapshot().Selection)

	m.SetRecords(customers(12)[1:5], 3)
	assert.Empty(t, m.Snapshot().Selection)
}
