// Package selection tracks selected records over the visible list.
//
// Single holds at most one selected id and supports keyboard movement.
// Multi holds a set of ids with tri-state "select page" semantics.
// Both drop ids that leave the visible list, so a selection never points
// at a hidden record.
package selection

import "slices"

// Change describes a selection transition. Presentation layers watch for
// changes to bring the newly selected record into view.
type Change struct {
	From string
	To   string
}

// Single is a single-select controller. The zero value has no selection.
type Single struct {
	id      string
	has     bool
	changes int
	last    Change
}

// Selected returns the selected id, if any.
func (s *Single) Selected() (string, bool) {
	return s.id, s.has
}

// Changes counts selection transitions since creation.
func (s *Single) Changes() int {
	return s.changes
}

// LastChange returns the most recent transition.
func (s *Single) LastChange() Change {
	return s.last
}

// Select selects id if it is in visible; otherwise the selection is cleared.
// Returns true when the selection changed.
func (s *Single) Select(id string, visible []string) bool {
	if !slices.Contains(visible, id) {
		return s.Clear()
	}
	return s.set(id)
}

// Clear drops the selection. Returns true when something was selected.
func (s *Single) Clear() bool {
	if !s.has {
		return false
	}
	s.record("")
	s.id, s.has = "", false
	return true
}

// MoveNext selects the item after the current one, or the first item when
// nothing is selected. No-op at the end of the list.
func (s *Single) MoveNext(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	if !s.has {
		return s.set(visible[0])
	}
	i := slices.Index(visible, s.id)
	if i < 0 {
		// stale; Reconcile should have cleared it
		return s.Clear()
	}
	if i >= len(visible)-1 {
		return false
	}
	return s.set(visible[i+1])
}

// MovePrevious selects the item before the current one. No-op at the start
// of the list or when nothing is selected.
func (s *Single) MovePrevious(visible []string) bool {
	if !s.has || len(visible) == 0 {
		return false
	}
	i := slices.Index(visible, s.id)
	if i < 0 {
		return s.Clear()
	}
	if i == 0 {
		return false
	}
	return s.set(visible[i-1])
}

// MoveFirst selects the first visible item.
func (s *Single) MoveFirst(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	return s.set(visible[0])
}

// MoveLast selects the last visible item.
func (s *Single) MoveLast(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	return s.set(visible[len(visible)-1])
}

// Reconcile clears the selection if its id left the visible list.
// Returns true when the selection was cleared.
func (s *Single) Reconcile(visible []string) bool {
	if s.has && !slices.Contains(visible, s.id) {
		return s.Clear()
	}
	return false
}

func (s *Single) set(id string) bool {
	if s.has && s.id == id {
		return false
	}
	s.record(id)
	s.id, s.has = id, true
	return true
}

func (s *Single) record(to string) {
	s.last = Change{From: s.id, To: to}
	s.changes++
}
