// Package paging slices an ordered list into pages.
//
// Out-of-range page requests clamp to the nearest valid page instead of
// failing, so a page index survives the list shrinking under it.
package paging

import "github.com/abelbrown/panel/internal/record"

// DefaultPageSize is used when a Spec has no positive size.
const DefaultPageSize = 10

// Spec requests a zero-based page of the given size.
type Spec struct {
	Index int
	Size  int
}

// Normalize returns the spec with a positive size and non-negative index.
func (s Spec) Normalize() Spec {
	if s.Size <= 0 {
		s.Size = DefaultPageSize
	}
	if s.Index < 0 {
		s.Index = 0
	}
	return s
}

// Page is one slice of the list plus its position.
type Page struct {
	Items []record.Record
	Index int // clamped, zero-based
	Count int // always >= 1
	Total int
	Size  int
}

// Count returns the number of pages for total items, at least 1.
func Count(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Clamp limits index to [0, Count(total, size)-1].
func Clamp(index, total, size int) int {
	last := Count(total, size) - 1
	switch {
	case index < 0:
		return 0
	case index > last:
		return last
	}
	return index
}

// Apply returns the requested page. Items is a copy and never nil.
func Apply(records []record.Record, s Spec) Page {
	s = s.Normalize()
	total := len(records)
	index := Clamp(s.Index, total, s.Size)

	start := index * s.Size
	end := min(start+s.Size, total)
	items := make([]record.Record, 0, max(end-start, 0))
	if start < end {
		items = append(items, records[start:end]...)
	}

	return Page{
		Items: items,
		Index: index,
		Count: Count(total, s.Size),
		Total: total,
		Size:  s.Size,
	}
}

// Range returns the 1-based positions of the first and last item on the page,
// or 0, 0 for an empty page.
func (p Page) Range() (from, to int) {
	if len(p.Items) == 0 {
		return 0, 0
	}
	from = p.Index*p.Size + 1
	return from, from + len(p.Items) - 1
}

// PageOf returns the page index holding position pos of the list.
func PageOf(pos, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if pos < 0 {
		return 0
	}
	return pos / size
}
