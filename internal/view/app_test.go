package view

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/record"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func customerRecords(n int) []record.Record {
	items := make([]record.Record, n)
	for i := range items {
		items[i] = dashboard.Customer{
			ID:     fmt.Sprintf("c%02d", i),
			Name:   fmt.Sprintf("Customer %02d", i),
			Email:  fmt.Sprintf("customer%02d@example.com", i),
			Status: dashboard.CustomerStatuses[i%3],
		}.ToRecord()
	}
	return items
}

func notificationRecords() []record.Record {
	now := time.Now()
	return []record.Record{
		dashboard.Notification{ID: "n1", Unread: true, Sender: "Jordan", Body: "sent you a message", Date: now}.ToRecord(),
		dashboard.Notification{ID: "n2", Sender: "Alex", Body: "mentioned you", Date: now.Add(-time.Hour)}.ToRecord(),
	}
}

func static(records []record.Record) model.Fetcher {
	return model.FetcherFunc(func(ctx context.Context) ([]record.Record, error) {
		return records, nil
	})
}

func newApp(t *testing.T, shell *dashboard.Shell) Model {
	t.Helper()
	sources := make(map[dashboard.Resource]Source)
	for _, res := range dashboard.Resources {
		st := model.NewStore(string(res), nil)
		t.Cleanup(st.Close)
		sources[res] = Source{Store: st, Fetcher: static(nil)}
	}
	sources[dashboard.Customers] = Source{Store: sources[dashboard.Customers].Store, Fetcher: static(customerRecords(25))}

	m := New(Options{Sources: sources, Shell: shell, PageSize: 10})
	t.Cleanup(m.cancel)
	return update(t, m, tea.WindowSizeMsg{Width: 160, Height: 30})
}

func completed(res dashboard.Resource, records []record.Record, version uint64) storeEventMsg {
	return storeEventMsg{res: res, event: model.Event{
		Type: model.EventCompleted, Store: string(res), Records: records, Version: version,
	}}
}

func TestAppInit(t *testing.T) {
	m := newApp(t, nil)
	assert.NotNil(t, m.Init())
	assert.Equal(t, PageCustomers, m.Page())
}

func TestAppRoutesStoreEvents(t *testing.T) {
	m := newApp(t, nil)

	m = update(t, m, storeEventMsg{res: dashboard.Customers, event: model.Event{Type: model.EventStarted}})
	assert.True(t, m.loading[dashboard.Customers])
	assert.Contains(t, m.View(), "Loading")

	m = update(t, m, completed(dashboard.Customers, customerRecords(25), 1))
	assert.False(t, m.loading[dashboard.Customers])
	assert.Equal(t, 25, m.customers.Snapshot().Page.Total)
	assert.Contains(t, m.View(), "Customer 00")
	assert.Contains(t, m.View(), "1-10 of 25")

	m = update(t, m, completed(dashboard.Notifications, notificationRecords(), 1))
	assert.Contains(t, m.View(), "🔔 1")
}

func TestAppLoadErrorKeepsRecords(t *testing.T) {
	m := newApp(t, nil)
	m = update(t, m, completed(dashboard.Customers, customerRecords(5), 1))

	boom := &model.LoadError{Store: "customers", Err: errors.New("connection refused")}
	m = update(t, m, storeEventMsg{res: dashboard.Customers, event: model.Event{Type: model.EventError, Err: boom}})

	view := m.View()
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "Customer 04")

	// superseded loads are not errors
	m = update(t, m, completed(dashboard.Customers, customerRecords(5), 2))
	m = update(t, m, storeEventMsg{res: dashboard.Customers, event: model.Event{Type: model.EventError, Err: model.ErrSuperseded}})
	assert.NotContains(t, m.View(), "⚠")
}

func TestAppNavigation(t *testing.T) {
	m := newApp(t, nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageMembers, m.Page())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageInbox, m.Page())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageCustomers, m.Page())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PageInbox, m.Page())
	assert.Equal(t, "inbox", m.shell.Page())
}

func TestAppKeysGoToCurrentPage(t *testing.T) {
	m := newApp(t, nil)
	m = update(t, m, completed(dashboard.Customers, customerRecords(25), 1))

	m = update(t, m, runes("j"), runes(" "), runes("l"))
	assert.Equal(t, []string{"c00"}, m.customers.Snapshot().Selection)
	assert.Equal(t, 1, m.customers.Snapshot().Page.Index)
	assert.Empty(t, m.members.Snapshot().Cursor)
}

func TestAppSearchCapturesKeys(t *testing.T) {
	m := newApp(t, nil)
	m = update(t, m, completed(dashboard.Customers, customerRecords(25), 1))

	m = update(t, m, runes("/"), runes("q"), tea.KeyMsg{Type: tea.KeyTab})
	assert.NoError(t, m.ctx.Err(), "q quit while searching")
	assert.Equal(t, "q", m.customers.Snapshot().Query)
	assert.Equal(t, PageCustomers, m.Page())

	// esc leaves the search and global keys work again
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape}, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageMembers, m.Page())
}

func TestAppQuit(t *testing.T) {
	m := newApp(t, nil)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Error(t, m.ctx.Err())
}

func TestAppSlideover(t *testing.T) {
	m := newApp(t, nil)
	m = update(t, m, completed(dashboard.Notifications, notificationRecords(), 1))

	m = update(t, m, runes("n"))
	require.True(t, m.shell.IsOpen(dashboard.SlideoverNotifications))
	view := m.View()
	assert.Contains(t, view, "Notifications")
	assert.Contains(t, view, "sent you a message")

	// j/k move inside the slideover, not the page
	m = update(t, m, runes("j"))
	assert.Equal(t, "n1", m.notifSnap.Cursor)
	assert.Empty(t, m.customers.Snapshot().Cursor)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.False(t, m.shell.IsOpen(dashboard.SlideoverNotifications))

	// navigating closes it
	m = update(t, m, runes("n"), tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.shell.IsOpen(dashboard.SlideoverNotifications))
}

func TestAppSharedShell(t *testing.T) {
	var provider dashboard.ShellProvider
	a := newApp(t, provider.Get())
	b := newApp(t, provider.Get())

	a = update(t, a, runes("n"))
	assert.True(t, b.shell.IsOpen(dashboard.SlideoverNotifications))
	assert.Contains(t, b.View(), "Notifications")

	provider.Reset()
	assert.False(t, a.shell.IsOpen(dashboard.SlideoverNotifications))
}

func TestAppHelp(t *testing.T) {
	m := newApp(t, nil)
	m = update(t, m, runes("?"))
	assert.Contains(t, m.View(), "Toggle whole page")

	// keys don't reach the page while help is up
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageCustomers, m.Page())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.NotContains(t, m.View(), "Toggle whole page")
}

func TestAppLoadThroughStore(t *testing.T) {
	m := newApp(t, nil)

	done, ok := m.load(dashboard.Customers)().(loadDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	// started, then completed
	for range 2 {
		msg := m.listen(dashboard.Customers)()
		ev, ok := msg.(storeEventMsg)
		require.True(t, ok, "unexpected %T", msg)
		m = update(t, m, ev)
	}
	assert.Equal(t, 25, m.customers.Snapshot().Page.Total)
	assert.False(t, m.loading[dashboard.Customers])
}
