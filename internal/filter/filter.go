// Package filter provides pure filter functions for records.
// All functions are simple: []Record in, []Record out. No side effects.
// Output keeps input order; filters only remove.
package filter

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"

	"github.com/abelbrown/panel/internal/record"
)

// MatchMode selects how query text is matched against a field.
type MatchMode string

const (
	// MatchSubstring matches when the case-folded query is a substring of the field.
	MatchSubstring MatchMode = "substring"
	// MatchFuzzy matches when the query runes appear in order in the field.
	MatchFuzzy MatchMode = "fuzzy"
)

// FieldPolicy combines per-field matches.
type FieldPolicy string

const (
	// AnyField matches when at least one field matches (OR).
	AnyField FieldPolicy = "any"
	// AllFields matches when every field matches (AND).
	AllFields FieldPolicy = "all"
)

// AllCategories disables the categorical filter.
const AllCategories = "all"

// Query is a text search over named string fields.
type Query struct {
	Text   string
	Fields []string
	Mode   MatchMode
	Policy FieldPolicy
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == "" || len(q.Fields) == 0
}

// Equal reports whether two queries produce the same result.
func (q Query) Equal(o Query) bool {
	return q.Text == o.Text && q.mode() == o.mode() && q.policy() == o.policy() &&
		slices.Equal(q.Fields, o.Fields)
}

func (q Query) mode() MatchMode {
	if q.Mode == MatchFuzzy {
		return MatchFuzzy
	}
	return MatchSubstring
}

func (q Query) policy() FieldPolicy {
	if q.Policy == AllFields {
		return AllFields
	}
	return AnyField
}

// Category is an exact-match filter on one field, e.g. status == "subscribed".
type Category struct {
	Field string
	Value string
}

// Active reports whether the category restricts anything.
func (c Category) Active() bool {
	return c.Field != "" && c.Value != "" && c.Value != AllCategories
}

// matches compares against the field's text form, so "true" matches a bool field.
func (c Category) matches(r record.Record) bool {
	return r.Field(c.Field).Text() == c.Value
}

// Apply returns records matching both the query and the category.
// Never returns nil.
func Apply(records []record.Record, q Query, c Category) []record.Record {
	return ByQuery(ByCategory(records, c), q)
}

// ByCategory keeps records whose category field equals c.Value.
func ByCategory(records []record.Record, c Category) []record.Record {
	if !c.Active() {
		return clone(records)
	}
	result := make([]record.Record, 0, len(records))
	for _, r := range records {
		if c.matches(r) {
			result = append(result, r)
		}
	}
	return result
}

// ByQuery keeps records whose fields match the query text.
func ByQuery(records []record.Record, q Query) []record.Record {
	if q.Empty() {
		return clone(records)
	}
	if len(records) == 0 {
		return []record.Record{}
	}

	var hits [][]bool
	switch q.mode() {
	case MatchFuzzy:
		hits = fuzzyHits(records, q)
	default:
		hits = substringHits(records, q)
	}

	result := make([]record.Record, 0, len(records))
	for i, r := range records {
		if combine(hits, i, q.policy()) {
			result = append(result, r)
		}
	}
	return result
}

// substringHits returns hits[field][record].
func substringHits(records []record.Record, q Query) [][]bool {
	// Casers carry state, so one per call.
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Text))

	hits := make([][]bool, len(q.Fields))
	for f, name := range q.Fields {
		hits[f] = make([]bool, len(records))
		for i, r := range records {
			hits[f][i] = strings.Contains(fold.String(r.Field(name).Text()), needle)
		}
	}
	return hits
}

func fuzzyHits(records []record.Record, q Query) [][]bool {
	pattern := strings.TrimSpace(q.Text)
	texts := make([]string, len(records))

	hits := make([][]bool, len(q.Fields))
	for f, name := range q.Fields {
		hits[f] = make([]bool, len(records))
		for i, r := range records {
			texts[i] = r.Field(name).Text()
		}
		for _, m := range fuzzy.Find(pattern, texts) {
			hits[f][m.Index] = true
		}
	}
	return hits
}

func combine(hits [][]bool, i int, policy FieldPolicy) bool {
	if policy == AllFields {
		for _, field := range hits {
			if !field[i] {
				return false
			}
		}
		return true
	}
	for _, field := range hits {
		if field[i] {
			return true
		}
	}
	return false
}

func clone(records []record.Record) []record.Record {
	result := make([]record.Record, len(records))
	copy(result, records)
	return result
}
