// Package order sorts records by a single field.
package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.einride.tech/aip/ordering"

	"github.com/abelbrown/panel/internal/record"
)

// ErrMultiField is returned when an order expression names more than one field.
// Views sort by one column at a time.
var ErrMultiField = errors.New("order: only one sort field is supported")

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Spec is the active sort. The zero Spec means input order.
type Spec struct {
	Field string
	Dir   Direction
}

// None reports whether no sort is active.
func (s Spec) None() bool {
	return s.Field == ""
}

// String renders the spec in order_by syntax ("name desc").
func (s Spec) String() string {
	if s.None() {
		return ""
	}
	if s.Dir == Desc {
		return s.Field + " desc"
	}
	return s.Field
}

// Toggle returns the spec after clicking a column header:
// another column starts ascending, ascending flips to descending, and
// descending clears the sort.
func (s Spec) Toggle(field string) Spec {
	switch {
	case s.Field != field:
		return Spec{Field: field, Dir: Asc}
	case s.Dir == Desc:
		return Spec{}
	default:
		return Spec{Field: field, Dir: Desc}
	}
}

// Parse reads an AIP-132 order_by expression such as "date desc".
// An empty string yields the zero Spec.
func Parse(s string) (Spec, error) {
	if strings.TrimSpace(s) == "" {
		return Spec{}, nil
	}
	var ob ordering.OrderBy
	if err := ob.UnmarshalString(s); err != nil {
		return Spec{}, fmt.Errorf("parse order %q: %w", s, err)
	}
	switch len(ob.Fields) {
	case 0:
		return Spec{}, nil
	case 1:
	default:
		return Spec{}, ErrMultiField
	}
	f := ob.Fields[0]
	if f.Desc {
		return Spec{Field: f.Path, Dir: Desc}, nil
	}
	return Spec{Field: f.Path, Dir: Asc}, nil
}

// Apply returns a sorted copy of records. The sort is stable, and records
// with a null or missing field go last in either direction.
func Apply(records []record.Record, s Spec) []record.Record {
	result := make([]record.Record, len(records))
	copy(result, records)
	if s.None() || len(result) < 2 {
		return result
	}

	desc := s.Dir == Desc
	slices.SortStableFunc(result, func(a, b record.Record) int {
		av, bv := a.Field(s.Field), b.Field(s.Field)
		switch an, bn := av.IsNull(), bv.IsNull(); {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		c := record.Compare(av, bv)
		if desc {
			return -c
		}
		return c
	})
	return result
}
