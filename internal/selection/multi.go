package selection

import (
	"slices"
	"sort"
)

// TriState is the header checkbox state for a page of rows.
type TriState int

const (
	None TriState = iota
	Some
	All
)

// String returns "none", "some" or "all".
func (t TriState) String() string {
	switch t {
	case Some:
		return "some"
	case All:
		return "all"
	default:
		return "none"
	}
}

// Multi is a multi-select controller. Use NewMulti; the zero value is not usable.
type Multi struct {
	ids map[string]struct{}
}

// NewMulti creates an empty multi-selection.
func NewMulti() *Multi {
	return &Multi{ids: make(map[string]struct{})}
}

// Toggle flips id if it is visible. Returns true when the set changed.
func (m *Multi) Toggle(id string, visible []string) bool {
	if _, ok := m.ids[id]; ok {
		delete(m.ids, id)
		return true
	}
	if !slices.Contains(visible, id) {
		return false
	}
	m.ids[id] = struct{}{}
	return true
}

// SelectAll adds every id of the current page. Ids outside the page are
// neither added nor removed.
func (m *Multi) SelectAll(pageIDs []string) {
	for _, id := range pageIDs {
		m.ids[id] = struct{}{}
	}
}

// DeselectAll removes every id of the current page.
func (m *Multi) DeselectAll(pageIDs []string) {
	for _, id := range pageIDs {
		delete(m.ids, id)
	}
}

// ToggleAll implements the header checkbox: a fully selected page is
// deselected, anything else selects the whole page.
func (m *Multi) ToggleAll(pageIDs []string) {
	if m.IsAllSelected(pageIDs) {
		m.DeselectAll(pageIDs)
		return
	}
	m.SelectAll(pageIDs)
}

// ClearAll empties the selection.
func (m *Multi) ClearAll() {
	clear(m.ids)
}

// Has reports whether id is selected.
func (m *Multi) Has(id string) bool {
	_, ok := m.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (m *Multi) Len() int {
	return len(m.ids)
}

// IDs returns the selected ids in sorted order.
func (m *Multi) IDs() []string {
	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsAllSelected reports whether every id of a non-empty page is selected.
func (m *Multi) IsAllSelected(pageIDs []string) bool {
	if len(pageIDs) == 0 {
		return false
	}
	for _, id := range pageIDs {
		if !m.Has(id) {
			return false
		}
	}
	return true
}

// IsSomeSelected reports whether some, but not all, ids of the page are selected.
func (m *Multi) IsSomeSelected(pageIDs []string) bool {
	return m.State(pageIDs) == Some
}

// State returns the tri-state for the page.
func (m *Multi) State(pageIDs []string) TriState {
	n := 0
	for _, id := range pageIDs {
		if m.Has(id) {
			n++
		}
	}
	switch {
	case n == 0:
		return None
	case n == len(pageIDs):
		return All
	default:
		return Some
	}
}

// Reconcile drops ids that are no longer visible and keeps the rest.
// Returns the dropped ids.
func (m *Multi) Reconcile(visible []string) []string {
	keep := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	var dropped []string
	for id := range m.ids {
		if _, ok := keep[id]; !ok {
			dropped = append(dropped, id)
			delete(m.ids, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}
