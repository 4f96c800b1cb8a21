// Package record defines the uniform item shape shared by every list view.
//
// A Record is an id plus a bag of named primitive fields. Views never look
// at the concrete resource type (customer, member, mail); they search, sort
// and select over Records only.
package record

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the primitive type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTime
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a tagged primitive field value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Num wraps a number.
func Num(n float64) Value { return Value{kind: KindNumber, n: n} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time wraps a timestamp. A zero time is stored as null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, t: t}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload ("" for other kinds).
func (v Value) AsString() string { return v.s }

// AsNumber returns the numeric payload (0 for other kinds).
func (v Value) AsNumber() float64 { return v.n }

// AsBool returns the boolean payload (false for other kinds).
func (v Value) AsBool() bool { return v.b }

// AsTime returns the time payload (zero for other kinds).
func (v Value) AsTime() time.Time { return v.t }

// Text returns the string representation used for searching.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// Compare orders two non-null values: lexicographic for strings, numeric for
// numbers, chronological for times, false before true. Values of different
// kinds order by kind. Nulls compare equal to each other and before anything
// else; callers that need nulls last must handle them first.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindNumber:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		}
		return 0
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	case KindTime:
		return a.t.Compare(b.t)
	default:
		return 0
	}
}

// Record is one item of a collection.
type Record struct {
	ID     string
	Fields map[string]Value
}

// New creates a record with the given id and fields.
func New(id string, fields map[string]Value) Record {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Record{ID: id, Fields: fields}
}

// Field returns the named field, or null if absent.
func (r Record) Field(name string) Value {
	if r.Fields == nil {
		return Value{}
	}
	return r.Fields[name]
}

// IDs returns the ids of records in order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// Index maps id to position. The first occurrence wins.
func Index(records []Record) map[string]int {
	idx := make(map[string]int, len(records))
	for i, r := range records {
		if _, ok := idx[r.ID]; !ok {
			idx[r.ID] = i
		}
	}
	return idx
}

// FirstDuplicate returns the first id that appears more than once.
func FirstDuplicate(records []Record) (string, bool) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			return r.ID, true
		}
		seen[r.ID] = struct{}{}
	}
	return "", false
}
