// Package inbox provides the mail view: a list with all/unread tabs on the
// left and the selected mail on the right.
package inbox

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/panel/internal/controller"
	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/view/styles"
	"github.com/abelbrown/panel/internal/view/table"
)

// PageSize keeps the whole mailbox on one page; the list scrolls instead.
const PageSize = 1000

// FrameMsg advances the scroll animation.
type FrameMsg time.Time

const fps = 60

// Model is the inbox view model.
type Model struct {
	ctrl   *controller.Controller
	snap   controller.Snapshot
	tab    dashboard.InboxTab
	search table.Search
	width  int
	height int
	now    func() time.Time

	// Smooth scrolling with harmonica spring physics
	scrollSpring   harmonica.Spring
	scrollPos      float64
	scrollVelocity float64
	scrollTarget   float64
}

// New creates an inbox over ctrl, which should be a single-select
// controller categorized by the mail's "unread" field.
func New(ctrl *controller.Controller) Model {
	return Model{
		ctrl:         ctrl,
		snap:         ctrl.Snapshot(),
		tab:          dashboard.TabAll,
		search:       table.NewSearch("Search mail..."),
		now:          time.Now,
		scrollSpring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.8),
	}
}

// Snapshot returns the snapshot being drawn.
func (m Model) Snapshot() controller.Snapshot {
	return m.snap
}

// Tab returns the active tab.
func (m Model) Tab() dashboard.InboxTab {
	return m.tab
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.search.Active()
}

// SetRecords hands a freshly loaded mailbox to the controller.
func (m *Model) SetRecords(records []record.Record, version uint64) tea.Cmd {
	m.snap = m.ctrl.SetRecords(records, version)
	return m.retarget()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Selected returns the open mail.
func (m Model) Selected() (record.Record, bool) {
	if m.snap.Cursor == "" {
		return record.Record{}, false
	}
	return m.snap.Item(m.snap.Cursor)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.scrollPos, m.scrollVelocity = m.scrollSpring.Update(m.scrollPos, m.scrollVelocity, m.scrollTarget)
		if m.IsScrolling() {
			return m, frame()
		}
		m.scrollPos, m.scrollVelocity = m.scrollTarget, 0
		return m, nil

	case tea.KeyMsg:
		if m.search.Active() {
			var cmd tea.Cmd
			m.search, cmd, _ = m.search.Update(msg)
			m.snap = m.ctrl.SetQuery(m.search.Value())
			scroll := m.retarget()
			return m, tea.Batch(cmd, scroll)
		}

		switch {
		case key.Matches(msg, keys.Search):
			cmd := m.search.Focus()
			return m, cmd
		case key.Matches(msg, keys.Tab):
			m.tab = m.tab.Next()
			m.snap = m.ctrl.SetCategory(m.tab.Category())
		case key.Matches(msg, keys.Down):
			m.snap = m.ctrl.MoveNext()
		case key.Matches(msg, keys.Up):
			m.snap = m.ctrl.MovePrevious()
		case key.Matches(msg, keys.Close):
			m.snap = m.ctrl.ClearSelection()
		default:
			return m, nil
		}
		scroll := m.retarget()
		return m, scroll
	}
	return m, nil
}

// retarget points the scroll spring at the cursor and starts the animation
// when it has somewhere to go.
func (m *Model) retarget() tea.Cmd {
	target := float64(m.offsetFor(m.cursorIndex()))
	if target == m.scrollTarget {
		return nil
	}
	m.scrollTarget = target
	return frame()
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// IsScrolling reports whether the scroll animation is in progress.
func (m Model) IsScrolling() bool {
	return math.Abs(m.scrollPos-m.scrollTarget) > 0.01
}

// ScrollOffset returns the first list row drawn.
func (m Model) ScrollOffset() int {
	off := int(math.Round(m.scrollPos))
	maxOff := max(0, len(m.snap.VisibleItems)-m.listLines())
	return min(max(off, 0), maxOff)
}

func (m Model) cursorIndex() int {
	for i, r := range m.snap.VisibleItems {
		if r.ID == m.snap.Cursor {
			return i
		}
	}
	return 0
}

// offsetFor returns the scroll offset that keeps row i in view, moving as
// little as possible from the current target.
func (m Model) offsetFor(i int) int {
	lines := m.listLines()
	off := int(m.scrollTarget)
	if i < off {
		off = i
	}
	if i >= off+lines {
		off = i - lines + 1
	}
	return max(off, 0)
}

func (m Model) listLines() int {
	// tabs, search, footer
	return max(1, m.height-3)
}

// View implements tea.Model.
func (m Model) View() string {
	listWidth := max(30, m.width*2/5)
	detailWidth := max(20, m.width-listWidth-4)

	left := m.renderList(listWidth)
	right := m.renderDetail(detailWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (m Model) renderTabs() string {
	var tabs []string
	for _, t := range []dashboard.InboxTab{dashboard.TabAll, dashboard.TabUnread} {
		label := strings.ToUpper(string(t[:1])) + string(t[1:])
		if t == m.tab {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	return strings.Join(tabs, "")
}

func (m Model) renderList(width int) string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	if s := m.search.View(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}

	items := m.snap.VisibleItems
	if len(items) == 0 {
		b.WriteString(styles.Help.Render("No mail."))
		return lipgloss.NewStyle().Width(width).Render(b.String())
	}

	start := m.ScrollOffset()
	end := min(start+m.listLines(), len(items))
	for _, r := range items[start:end] {
		b.WriteString(m.renderRow(r, width))
		b.WriteString("\n")
	}
	b.WriteString(styles.Muted.Render(fmt.Sprintf("%d messages", m.snap.Page.Total)))
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m Model) renderRow(r record.Record, width int) string {
	dot := " "
	if r.Field("unread").AsBool() {
		dot = "●"
	}
	age := humanize.RelTime(r.Field("date").AsTime(), m.now(), "ago", "from now")
	from := styles.Pad(r.Field("from_name").Text(), 16)
	subjWidth := max(4, width-lipgloss.Width(age)-22)
	line := fmt.Sprintf("%s %s %s  %s", dot, from, styles.Pad(r.Field("subject").Text(), subjWidth), age)

	if r.ID == m.snap.Cursor {
		return styles.RowCursor.Render(line)
	}
	if r.Field("unread").AsBool() {
		return styles.Bold.Render(line)
	}
	return styles.Row.Render(line)
}

func (m Model) renderDetail(width int) string {
	r, ok := m.Selected()
	if !ok {
		return styles.Panel.Width(width).Render(styles.Muted.Render("No mail selected"))
	}

	date := r.Field("date").AsTime()
	var b strings.Builder
	b.WriteString(styles.Bold.Render(r.Field("from_name").Text()))
	b.WriteString(styles.Muted.Render(" <" + r.Field("from_email").Text() + ">"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(date.Local().Format("Jan 2, 2006 15:04") + " · " + humanize.RelTime(date, m.now(), "ago", "from now")))
	b.WriteString("\n\n")
	b.WriteString(styles.Bold.Render(r.Field("subject").Text()))
	b.WriteString("\n\n")
	b.WriteString(r.Field("body").Text())
	return styles.Panel.Width(width).Render(b.String())
}

// Help lists the inbox key hints.
func (m Model) Help() string {
	return "j/k move  u all/unread  / search  esc close mail"
}

// Key bindings
var keys = struct {
	Up     key.Binding
	Down   key.Binding
	Tab    key.Binding
	Search key.Binding
	Close  key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Tab:    key.NewBinding(key.WithKeys("u")),
	Search: key.NewBinding(key.WithKeys("/")),
	Close:  key.NewBinding(key.WithKeys("esc")),
}
