package dashboard

// Badge is the label and color a status is rendered with. Color is a hex
// terminal color.
type Badge struct {
	Label string
	Color string
}

// Badge colors.
const (
	ColorSuccess = "#22c55e"
	ColorError   = "#ef4444"
	ColorWarning = "#f59e0b"
	ColorPrimary = "#3b82f6"
	ColorNeutral = "#6b7280"
)

// BadgeSet maps known values to badges and everything else to a fallback,
// so every value renders.
type BadgeSet struct {
	known    map[string]Badge
	fallback Badge
}

// NewBadgeSet creates a set with the given fallback.
func NewBadgeSet(known map[string]Badge, fallback Badge) BadgeSet {
	m := make(map[string]Badge, len(known))
	for k, v := range known {
		m[k] = v
	}
	return BadgeSet{known: m, fallback: fallback}
}

// Lookup returns the badge for value, or the fallback.
func (s BadgeSet) Lookup(value string) Badge {
	if b, ok := s.known[value]; ok {
		return b
	}
	if s.fallback.Label == "" {
		return Badge{Label: value, Color: s.fallback.Color}
	}
	return s.fallback
}

var statusBadges = NewBadgeSet(map[string]Badge{
	StatusSubscribed:   {Label: "subscribed", Color: ColorSuccess},
	StatusUnsubscribed: {Label: "unsubscribed", Color: ColorError},
	StatusBounced:      {Label: "bounced", Color: ColorWarning},
}, Badge{Label: "unknown", Color: ColorNeutral})

var roleBadges = NewBadgeSet(map[string]Badge{
	RoleOwner:  {Label: "owner", Color: ColorPrimary},
	RoleMember: {Label: "member", Color: ColorNeutral},
}, Badge{Label: "unknown", Color: ColorNeutral})

// StatusBadge maps a customer status to its badge. Unseen statuses get the
// "unknown" badge.
func StatusBadge(status string) Badge {
	return statusBadges.Lookup(status)
}

// RoleBadge maps a member role to its badge.
func RoleBadge(role string) Badge {
	return roleBadges.Lookup(role)
}
