// Package view provides the terminal UI for the dashboard.
//
// The view layer renders snapshots from controllers and turns keys into
// controller intents. Views are "dumb": they never filter, sort or page
// records themselves.
//
// # Architecture
//
// The root Model (this file) orchestrates the pages:
//   - Customers: multi-select table with a status filter
//   - Members: single-select table with role badges
//   - Inbox: mail list with all/unread tabs and a detail pane
//
// plus the notifications slideover, whose open state lives in the shared
// dashboard.Shell. Each page's records arrive from its model.Store through
// the store's event channel.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/panel/internal/controller"
	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/logging"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/view/inbox"
	"github.com/abelbrown/panel/internal/view/styles"
	"github.com/abelbrown/panel/internal/view/table"
)

// Page identifies a top-level page.
type Page int

const (
	PageCustomers Page = iota
	PageMembers
	PageInbox
)

var pages = []Page{PageCustomers, PageMembers, PageInbox}

func (p Page) String() string {
	switch p {
	case PageMembers:
		return "members"
	case PageInbox:
		return "inbox"
	default:
		return "customers"
	}
}

// Resource returns the collection shown on the page.
func (p Page) Resource() dashboard.Resource {
	switch p {
	case PageMembers:
		return dashboard.Members
	case PageInbox:
		return dashboard.Mails
	default:
		return dashboard.Customers
	}
}

// Source pairs a store with the fetcher that fills it.
type Source struct {
	Store   *model.Store
	Fetcher model.Fetcher
}

// Options configures the app.
type Options struct {
	Sources       map[dashboard.Resource]Source
	Shell         *dashboard.Shell
	PageSize      int
	MatchMode     filter.MatchMode
	FieldPolicy   filter.FieldPolicy
	CustomersSort order.Spec // overrides the customers default
	Log           *otel.Logger
}

// NewController builds the controller for res with its search, category
// and sort defaults.
func NewController(res dashboard.Resource, mode controller.Mode, opts Options) *controller.Controller {
	sort := res.DefaultSort()
	if res == dashboard.Customers && !opts.CustomersSort.None() {
		sort = opts.CustomersSort
	}
	pageSize := opts.PageSize
	if res == dashboard.Mails || res == dashboard.Notifications {
		pageSize = inbox.PageSize
	}
	return controller.New(controller.Options{
		Name:          string(res),
		Mode:          mode,
		SearchFields:  res.SearchFields(),
		MatchMode:     opts.MatchMode,
		FieldPolicy:   opts.FieldPolicy,
		CategoryField: res.CategoryField(),
		Sort:          sort,
		PageSize:      pageSize,
		Log:           opts.Log,
	})
}

// Model is the root Bubble Tea model.
type Model struct {
	sources map[dashboard.Resource]Source
	shell   *dashboard.Shell

	// Views
	customers     table.Model
	members       table.Model
	inbox         inbox.Model
	notifications *controller.Controller
	notifSnap     controller.Snapshot

	// UI state
	width   int
	height  int
	spinner spinner.Model
	loading map[dashboard.Resource]bool
	errs    map[dashboard.Resource]error
	help    bool

	// Context for async operations
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the app model.
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.ColorPrimary)

	shell := opts.Shell
	if shell == nil {
		shell = (&dashboard.ShellProvider{}).Get()
	}
	if shell.Page() == "" {
		shell.Navigate(PageCustomers.String())
	}

	ctx, cancel := context.WithCancel(context.Background())

	notifications := NewController(dashboard.Notifications, controller.SingleSelect, opts)
	return Model{
		sources:       opts.Sources,
		shell:         shell,
		customers:     table.New(NewController(dashboard.Customers, controller.MultiSelect, opts), customersTable),
		members:       table.New(NewController(dashboard.Members, controller.SingleSelect, opts), membersTable),
		inbox:         inbox.New(NewController(dashboard.Mails, controller.SingleSelect, opts)),
		notifications: notifications,
		notifSnap:     notifications.Snapshot(),
		spinner:       s,
		loading:       make(map[dashboard.Resource]bool),
		errs:          make(map[dashboard.Resource]error),
		ctx:           ctx,
		cancel:        cancel,
	}
}

var customersTable = table.Config{
	Columns: []table.Column{
		{Title: "Name", Field: "name", Width: 20},
		{Title: "Email", Field: "email", Width: 28},
		{Title: "Location", Field: "location", Width: 20},
		{
			Title: "Status", Field: "status", Width: 12,
			Text:  func(r record.Record) string { return dashboard.StatusBadge(r.Field("status").Text()).Label },
			Color: func(r record.Record) string { return dashboard.StatusBadge(r.Field("status").Text()).Color },
		},
	},
	Categories:    dashboard.CustomerStatuses,
	CategoryLabel: "status",
	Placeholder:   "Filter customers...",
	Empty:         "No customers match.",
}

var membersTable = table.Config{
	Columns: []table.Column{
		{Title: "Name", Field: "name", Width: 22},
		{Title: "Username", Field: "username", Width: 18},
		{
			Title: "Role", Field: "role", Width: 8,
			Text:  func(r record.Record) string { return dashboard.RoleBadge(r.Field("role").Text()).Label },
			Color: func(r record.Record) string { return dashboard.RoleBadge(r.Field("role").Text()).Color },
		},
	},
	Categories:    []string{dashboard.RoleOwner, dashboard.RoleMember},
	CategoryLabel: "role",
	Placeholder:   "Filter members...",
	Empty:         "No members match.",
}

// Page returns the current page.
func (m Model) Page() Page {
	for _, p := range pages {
		if p.String() == m.shell.Page() {
			return p
		}
	}
	return PageCustomers
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	for _, res := range dashboard.Resources {
		if _, ok := m.sources[res]; !ok {
			continue
		}
		cmds = append(cmds, m.listen(res), m.load(res))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case inbox.FrameMsg:
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		cmds = append(cmds, cmd)

	case storeEventMsg:
		cmds = append(cmds, m.handleStoreEvent(msg.res, msg.event), m.listen(msg.res))

	case listenTimeoutMsg:
		cmds = append(cmds, m.listen(msg.res))

	case loadDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, model.ErrSuperseded) && !errors.Is(msg.err, context.Canceled) {
			logging.Warn("load failed", "resource", msg.res, "error", msg.err)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	bodyHeight := max(1, m.height-4) // header, error bar, status bar
	bodyWidth := m.width
	if m.shell.IsOpen(dashboard.SlideoverNotifications) {
		bodyWidth = max(20, m.width-slideoverWidth)
	}
	m.customers.SetSize(bodyWidth, bodyHeight)
	m.members.SetSize(bodyWidth, bodyHeight)
	m.inbox.SetSize(bodyWidth, bodyHeight)
}

const slideoverWidth = 44

func (m Model) searching() bool {
	switch m.Page() {
	case PageMembers:
		return m.members.Searching()
	case PageInbox:
		return m.inbox.Searching()
	default:
		return m.customers.Searching()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		m.cancel()
		return m, tea.Quit
	}

	// The search box owns the keyboard while focused.
	if m.searching() {
		return m.updatePage(msg)
	}

	if m.help {
		if key.Matches(msg, keys.Help, keys.Escape, keys.Quit) {
			m.help = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help = true
		return m, nil
	case key.Matches(msg, keys.NextPage):
		m.navigate(m.Page() + 1)
		return m, nil
	case key.Matches(msg, keys.PrevPage):
		m.navigate(m.Page() + Page(len(pages)) - 1)
		return m, nil
	case key.Matches(msg, keys.Notifications):
		m.shell.Toggle(dashboard.SlideoverNotifications)
		m.resize()
		return m, nil
	case key.Matches(msg, keys.Refresh):
		return m, m.refreshAll()
	}

	if m.shell.IsOpen(dashboard.SlideoverNotifications) {
		switch {
		case key.Matches(msg, keys.Escape):
			m.shell.Close()
			m.resize()
		case key.Matches(msg, keys.Down):
			m.notifSnap = m.notifications.MoveNext()
		case key.Matches(msg, keys.Up):
			m.notifSnap = m.notifications.MovePrevious()
		}
		return m, nil
	}

	return m.updatePage(msg)
}

func (m Model) updatePage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.Page() {
	case PageMembers:
		m.members, cmd = m.members.Update(msg)
	case PageInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	default:
		m.customers, cmd = m.customers.Update(msg)
	}
	return m, cmd
}

func (m *Model) navigate(p Page) {
	p = p % Page(len(pages))
	m.shell.Navigate(p.String())
	m.resize()
}

func (m *Model) handleStoreEvent(res dashboard.Resource, ev model.Event) tea.Cmd {
	switch ev.Type {
	case model.EventStarted:
		m.loading[res] = true
	case model.EventCompleted:
		m.loading[res] = false
		delete(m.errs, res)
		return m.setRecords(res, ev.Records, ev.Version)
	case model.EventError:
		m.loading[res] = false
		if !errors.Is(ev.Err, model.ErrSuperseded) {
			m.errs[res] = ev.Err
		}
	}
	return nil
}

func (m *Model) setRecords(res dashboard.Resource, records []record.Record, version uint64) tea.Cmd {
	switch res {
	case dashboard.Customers:
		m.customers.SetRecords(records, version)
	case dashboard.Members:
		m.members.SetRecords(records, version)
	case dashboard.Mails:
		return m.inbox.SetRecords(records, version)
	case dashboard.Notifications:
		m.notifSnap = m.notifications.SetRecords(records, version)
	}
	return nil
}

// Message types for tea.Cmd
type storeEventMsg struct {
	res   dashboard.Resource
	event model.Event
}

type listenTimeoutMsg struct {
	res dashboard.Resource
}

type loadDoneMsg struct {
	res dashboard.Resource
	err error
}

// listen waits for the next event from res's store.
func (m Model) listen(res dashboard.Resource) tea.Cmd {
	src, ok := m.sources[res]
	if !ok {
		return nil
	}
	events := src.Store.Subscribe()
	return func() tea.Msg {
		select {
		case ev := <-events:
			return storeEventMsg{res: res, event: ev}
		case <-m.ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
			// re-arm so a quiet store never strands the listener
			return listenTimeoutMsg{res: res}
		}
	}
}

func (m Model) load(res dashboard.Resource) tea.Cmd {
	src, ok := m.sources[res]
	if !ok || src.Fetcher == nil {
		return nil
	}
	return func() tea.Msg {
		return loadDoneMsg{res: res, err: src.Store.Load(m.ctx, src.Fetcher)}
	}
}

func (m Model) refreshAll() tea.Cmd {
	var cmds []tea.Cmd
	for _, res := range dashboard.Resources {
		src, ok := m.sources[res]
		if !ok {
			continue
		}
		cmds = append(cmds, func() tea.Msg {
			return loadDoneMsg{res: res, err: src.Store.Refresh(m.ctx)}
		})
	}
	return tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if err, ok := m.errs[m.Page().Resource()]; ok {
		b.WriteString(styles.ErrorBar.Render("⚠ " + err.Error() + "  (r to retry)"))
	}
	b.WriteString("\n")

	body := m.renderPage()
	if m.help {
		body = m.renderHelp()
	}
	if m.shell.IsOpen(dashboard.SlideoverNotifications) {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderNotifications())
	}
	b.WriteString(body)

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderPage() string {
	switch m.Page() {
	case PageMembers:
		return m.members.View()
	case PageInbox:
		return m.inbox.View()
	default:
		return m.customers.View()
	}
}

func (m Model) renderHeader() string {
	var tabs []string
	for _, p := range pages {
		label := strings.ToUpper(p.String()[:1]) + p.String()[1:]
		if p == m.Page() {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	left := "PANEL │ " + strings.Join(tabs, "")

	right := fmt.Sprintf("🔔 %d", m.unreadNotifications())
	if m.loading[m.Page().Resource()] {
		right = m.spinner.View() + " Loading… " + right
	}

	padding := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return styles.Header.Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) unreadNotifications() int {
	n := 0
	for _, r := range m.notifSnap.VisibleItems {
		if r.Field("unread").AsBool() {
			n++
		}
	}
	return n
}

func (m Model) renderStatusBar() string {
	var hints string
	switch m.Page() {
	case PageMembers:
		hints = m.members.Help()
	case PageInbox:
		hints = m.inbox.Help()
	default:
		hints = m.customers.Help()
	}
	global := "tab page  n notifications  r refresh  ? help  q quit"
	return styles.StatusBar.Render(hints + " │ " + global)
}

func (m Model) renderHelp() string {
	help := `
  PANEL

  PAGES
    tab/shift+tab   Switch page
    n               Notifications slideover
    r               Refresh every collection
    q               Quit

  LISTS
    j/k, ↑/↓        Move cursor
    ←/→             Previous/next page
    /               Search (enter keeps, esc clears)
    1-9             Sort by column (asc, desc, off)
    +/-             Page size
    s               Cycle status or role filter

  CUSTOMERS
    space           Toggle selection
    a               Toggle whole page
    x               Clear selection

  INBOX
    u               All/unread
    esc             Close mail

  Press ? or Esc to return
`
	return styles.Help.Render(help)
}

// Key bindings
var keys = struct {
	Quit          key.Binding
	ForceQuit     key.Binding
	Help          key.Binding
	Escape        key.Binding
	NextPage      key.Binding
	PrevPage      key.Binding
	Notifications key.Binding
	Refresh       key.Binding
	Up            key.Binding
	Down          key.Binding
}{
	Quit:          key.NewBinding(key.WithKeys("q")),
	ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
	Help:          key.NewBinding(key.WithKeys("?")),
	Escape:        key.NewBinding(key.WithKeys("esc")),
	NextPage:      key.NewBinding(key.WithKeys("tab")),
	PrevPage:      key.NewBinding(key.WithKeys("shift+tab")),
	Notifications: key.NewBinding(key.WithKeys("n")),
	Refresh:       key.NewBinding(key.WithKeys("r")),
	Up:            key.NewBinding(key.WithKeys("up", "k")),
	Down:          key.NewBinding(key.WithKeys("down", "j")),
}
