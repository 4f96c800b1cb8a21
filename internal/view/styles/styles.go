// Package styles holds the lipgloss styles shared by every view.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/panel/internal/dashboard"
)

// Colors used in the application.
var (
	ColorPrimary   = lipgloss.Color("#58a6ff")
	ColorText      = lipgloss.Color("#c9d1d9")
	ColorTextMuted = lipgloss.Color("#8b949e")
	ColorBorder    = lipgloss.Color("#30363d")
	ColorSurface   = lipgloss.Color("#161b22")
	ColorHighlight = lipgloss.Color("#1f6feb")
	ColorError     = lipgloss.Color("#f85149")
)

// Header style for the top bar.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorText).
	Background(ColorSurface).
	Padding(0, 1)

// Tab styles for the page switcher.
var (
	Tab = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Padding(0, 1)

	TabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Underline(true).
			Padding(0, 1)
)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(ColorText).
	Background(ColorSurface).
	Padding(0, 1)

// StatusBarKey style for key hints in the status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(ColorPrimary).
	Bold(true)

// ErrorBar style for load failures.
var ErrorBar = lipgloss.NewStyle().
	Foreground(ColorError).
	Bold(true).
	Padding(0, 1)

// Help style for help text and empty states.
var Help = lipgloss.NewStyle().
	Foreground(ColorTextMuted).
	Padding(1, 2)

// Table styles.
var (
	ColumnHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextMuted)

	Row = lipgloss.NewStyle().
		Foreground(ColorText)

	RowCursor = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(ColorHighlight)

	RowSelected = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	Muted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	Bold = lipgloss.NewStyle().Bold(true)
)

// SearchPrompt style for the "/" search prompt.
var SearchPrompt = lipgloss.NewStyle().
	Foreground(ColorPrimary).
	Bold(true)

// Panel style for bordered side panes.
var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Padding(0, 1)

// Slideover style for the notifications slideover.
var Slideover = lipgloss.NewStyle().
	Border(lipgloss.ThickBorder(), false, false, false, true).
	BorderForeground(ColorPrimary).
	Padding(0, 1)

// Badge renders b as a colored label.
func Badge(b dashboard.Badge) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(b.Color)).
		Render(b.Label)
}

// Checkbox renders a checkbox for the given state.
func Checkbox(checked, partial bool) string {
	switch {
	case checked:
		return "[x]"
	case partial:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Truncate shortens s to width display cells, adding an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad truncates or right-pads s to exactly width display cells.
func Pad(s string, width int) string {
	s = Truncate(s, width)
	if w := lipgloss.Width(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
