package table

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/panel/internal/view/styles"
)

// Search is the "/" search box. It reports the text on every keystroke so
// lists filter as the user types.
type Search struct {
	input  textinput.Model
	active bool
}

// NewSearch creates an inactive search box.
func NewSearch(placeholder string) Search {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.PromptStyle = styles.SearchPrompt
	ti.TextStyle = styles.Row
	ti.CharLimit = 64
	return Search{input: ti}
}

// Active reports whether the box has focus.
func (s Search) Active() bool {
	return s.active
}

// Value returns the current text.
func (s Search) Value() string {
	return s.input.Value()
}

// Focus activates the box, keeping any previous text.
func (s *Search) Focus() tea.Cmd {
	s.active = true
	s.input.CursorEnd()
	s.input.Focus()
	return textinput.Blink
}

// Blur deactivates the box and keeps the text.
func (s *Search) Blur() {
	s.active = false
	s.input.Blur()
}

// Reset deactivates the box and clears the text.
func (s *Search) Reset() {
	s.Blur()
	s.input.SetValue("")
}

// Update handles a key while active. done is true when the user finished
// with enter or esc; esc also clears the text.
func (s Search) Update(msg tea.KeyMsg) (Search, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		s.Blur()
		return s, nil, true
	case tea.KeyEscape:
		s.Reset()
		return s, nil, true
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd, false
}

// View renders the box, or the committed query when inactive.
func (s Search) View() string {
	if s.active {
		return s.input.View()
	}
	if v := s.input.Value(); v != "" {
		return styles.SearchPrompt.Render("/ ") + styles.Muted.Render(v)
	}
	return ""
}
