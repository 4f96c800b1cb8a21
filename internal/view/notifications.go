package view

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/panel/internal/view/styles"
)

// renderNotifications draws the slideover, newest first.
func (m Model) renderNotifications() string {
	inner := slideoverWidth - 3 // border + padding

	var b strings.Builder
	b.WriteString(styles.Bold.Render("Notifications"))
	b.WriteString("\n\n")

	items := m.notifSnap.VisibleItems
	if len(items) == 0 {
		b.WriteString(styles.Muted.Render("You're all caught up."))
	}
	now := time.Now()
	for i, r := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		dot := "  "
		if r.Field("unread").AsBool() {
			dot = "● "
		}
		head := dot + styles.Pad(r.Field("sender").Text(), inner-16) + " " +
			humanize.RelTime(r.Field("date").AsTime(), now, "ago", "from now")
		body := "  " + styles.Truncate(r.Field("body").Text(), inner-2)

		if r.ID == m.notifSnap.Cursor {
			b.WriteString(styles.RowCursor.Render(head))
		} else {
			b.WriteString(styles.Row.Render(head))
		}
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(body))
		b.WriteString("\n")
	}

	return styles.Slideover.Width(inner).Render(b.String())
}
