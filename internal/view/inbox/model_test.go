package inbox

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/panel/internal/controller"
	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/record"
)

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

// mails returns n mails m00.. one hour apart, m00 newest. Even ones are unread.
func mails(n int) []record.Record {
	items := make([]record.Record, n)
	for i := range items {
		items[i] = dashboard.Mail{
			ID:      fmt.Sprintf("m%02d", i),
			Unread:  i%2 == 0,
			From:    dashboard.Sender{Name: fmt.Sprintf("Sender %02d", i), Email: fmt.Sprintf("s%02d@example.com", i)},
			Subject: fmt.Sprintf("Subject %02d", i),
			Body:    fmt.Sprintf("Body of mail %02d", i),
			Date:    base.Add(-time.Duration(i) * time.Hour),
		}.ToRecord()
	}
	return items
}

func newInbox(t *testing.T, n int) Model {
	t.Helper()
	ctrl := controller.New(controller.Options{
		Name:          "mails",
		Mode:          controller.SingleSelect,
		SearchFields:  dashboard.Mails.SearchFields(),
		CategoryField: dashboard.Mails.CategoryField(),
		Sort:          dashboard.Mails.DefaultSort(),
		PageSize:      PageSize,
	})
	m := New(ctrl)
	m.now = func() time.Time { return base }
	m.SetSize(160, 8)

	// shuffle the input; the controller sorts newest first
	items := mails(n)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	m.SetRecords(items, 1)
	return m
}

func TestInboxNewestFirst(t *testing.T) {
	m := newInbox(t, 6)
	snap := m.Snapshot()

	require.Len(t, snap.VisibleItems, 6)
	assert.Equal(t, "m00", snap.VisibleItems[0].ID)
	assert.Equal(t, "m05", snap.VisibleItems[5].ID)
	assert.Contains(t, m.View(), "No mail selected")
}

func TestInboxOpenMail(t *testing.T) {
	m := newInbox(t, 6)

	m = press(m, runes("j"), runes("j"))
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "m01", r.ID)

	view := m.View()
	assert.Contains(t, view, "Body of mail 01")
	assert.Contains(t, view, "s01@example.com")

	m = press(m, tea.KeyMsg{Type: tea.KeyEscape})
	_, ok = m.Selected()
	assert.False(t, ok)
}

func TestInboxUnreadTab(t *testing.T) {
	m := newInbox(t, 6)

	// open a read mail, then switch to unread: the selection goes away
	m = press(m, runes("j"), runes("j"))
	require.Equal(t, "m01", m.Snapshot().Cursor)

	m = press(m, runes("u"))
	assert.Equal(t, dashboard.TabUnread, m.Tab())
	assert.Equal(t, 3, m.Snapshot().Page.Total)
	assert.Empty(t, m.Snapshot().Cursor)
	for _, r := range m.Snapshot().VisibleItems {
		assert.True(t, r.Field("unread").AsBool(), "read mail %s on unread tab", r.ID)
	}

	m = press(m, runes("u"))
	assert.Equal(t, dashboard.TabAll, m.Tab())
	assert.Equal(t, 6, m.Snapshot().Page.Total)
}

func TestInboxSearch(t *testing.T) {
	m := newInbox(t, 12)

	m = press(m, runes("/"))
	require.True(t, m.Searching())
	for _, r := range "subject 1" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	// Subject 10, Subject 11
	assert.Equal(t, 2, m.Snapshot().Page.Total)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, 2, m.Snapshot().Page.Total)
}

func TestInboxNavigationBounds(t *testing.T) {
	m := newInbox(t, 3)

	m = press(m, runes("k"))
	assert.Empty(t, m.Snapshot().Cursor)

	m = press(m, runes("j"), runes("j"), runes("j"), runes("j"))
	assert.Equal(t, "m02", m.Snapshot().Cursor)
}

func TestInboxSmoothScroll(t *testing.T) {
	m := newInbox(t, 20)
	// height 8 leaves 5 list lines

	var cmd tea.Cmd
	for range 10 {
		m, cmd = m.Update(runes("j"))
	}
	assert.Equal(t, "m09", m.Snapshot().Cursor)
	assert.Equal(t, 5.0, m.scrollTarget)
	assert.True(t, m.IsScrolling())
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, m.ScrollOffset())

	for i := 0; i < 600 && m.IsScrolling(); i++ {
		m, _ = m.Update(FrameMsg(base))
	}
	assert.False(t, m.IsScrolling())
	assert.Equal(t, 5, m.ScrollOffset())
	assert.Contains(t, m.View(), "Subject 09")
	assert.NotContains(t, m.View(), "Subject 00")
}
