package dashboard

import (
	"sync"

	"github.com/abelbrown/panel/internal/filter"
)

// Slideover names a panel that slides over the current page.
type Slideover string

const (
	SlideoverNone          Slideover = ""
	SlideoverNotifications Slideover = "notifications"
)

// Shell is UI state shared by every page: which slideover is open and which
// page is shown. One Shell exists per app; get it from a ShellProvider.
type Shell struct {
	mu        sync.Mutex
	slideover Slideover
	page      string
}

// Slideover returns the open slideover.
func (s *Shell) Slideover() Slideover {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slideover
}

// IsOpen reports whether sl is the open slideover.
func (s *Shell) IsOpen(sl Slideover) bool {
	return sl != SlideoverNone && s.Slideover() == sl
}

// Open shows sl, replacing any open slideover.
func (s *Shell) Open(sl Slideover) {
	s.mu.Lock()
	s.slideover = sl
	s.mu.Unlock()
}

// Close hides the open slideover.
func (s *Shell) Close() {
	s.Open(SlideoverNone)
}

// Toggle opens sl, or closes it when it is already open.
func (s *Shell) Toggle(sl Slideover) {
	s.mu.Lock()
	if s.slideover == sl {
		s.slideover = SlideoverNone
	} else {
		s.slideover = sl
	}
	s.mu.Unlock()
}

// Page returns the current page name.
func (s *Shell) Page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Navigate switches to page and closes any slideover.
func (s *Shell) Navigate(page string) {
	s.mu.Lock()
	s.page = page
	s.slideover = SlideoverNone
	s.mu.Unlock()
}

func (s *Shell) reset() {
	s.mu.Lock()
	s.page = ""
	s.slideover = SlideoverNone
	s.mu.Unlock()
}

// ShellProvider lazily creates the app's single Shell. The zero value is
// ready to use.
type ShellProvider struct {
	once  sync.Once
	shell *Shell
}

// Get returns the Shell, creating it on first use.
func (p *ShellProvider) Get() *Shell {
	p.once.Do(func() {
		p.shell = &Shell{}
	})
	return p.shell
}

// Reset clears the shared state without replacing the instance, so views
// holding the Shell keep seeing the same one.
func (p *ShellProvider) Reset() {
	p.Get().reset()
}

// InboxTab selects all mail or unread mail only.
type InboxTab string

const (
	TabAll    InboxTab = "all"
	TabUnread InboxTab = "unread"
)

// Category returns the categorical filter value for the tab, matched
// against the mail's "unread" field.
func (t InboxTab) Category() string {
	if t == TabUnread {
		return "true"
	}
	return filter.AllCategories
}

// Next cycles between tabs.
func (t InboxTab) Next() InboxTab {
	if t == TabUnread {
		return TabAll
	}
	return TabUnread
}
