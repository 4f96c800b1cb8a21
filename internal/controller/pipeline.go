package controller

import (
	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/paging"
	"github.com/abelbrown/panel/internal/record"
)

// State is everything the user controls about a list view.
type State struct {
	Query    filter.Query
	Category filter.Category
	Sort     order.Spec
	Page     paging.Spec
}

// Frame carries one derivation through the pipeline. Each stage reads the
// previous stage's Records and replaces them.
type Frame struct {
	State   State
	Version uint64 // identifies the source collection for memoization

	Records []record.Record
	Visible []record.Record // filtered and sorted, before paging
	Page    paging.Page
}

// Stage is one named step of the derivation.
//
// Stages must not modify the input slices; they replace Frame fields with
// new slices instead.
type Stage struct {
	Name string
	Run  func(f Frame) Frame
}

// Pipeline runs stages in order. The order is fixed at construction so it
// can be inspected with Names.
type Pipeline []Stage

// Names returns the stage names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// Run feeds f through every stage.
func (p Pipeline) Run(f Frame) Frame {
	for _, s := range p {
		f = s.Run(f)
	}
	return f
}

// FilterStage applies the query and category. A nil memo recomputes on
// every run.
func FilterStage(m *filter.Memo) Stage {
	return Stage{Name: "filter", Run: func(f Frame) Frame {
		if m == nil {
			f.Records = filter.Apply(f.Records, f.State.Query, f.State.Category)
		} else {
			f.Records = m.Apply(f.Version, f.Records, f.State.Query, f.State.Category)
		}
		return f
	}}
}

// SortStage orders the filtered records. Its output is the visible set.
func SortStage() Stage {
	return Stage{Name: "sort", Run: func(f Frame) Frame {
		f.Records = order.Apply(f.Records, f.State.Sort)
		f.Visible = f.Records
		return f
	}}
}

// PaginateStage slices the visible set into the requested page, clamping
// the index when the set shrank.
func PaginateStage() Stage {
	return Stage{Name: "paginate", Run: func(f Frame) Frame {
		f.Page = paging.Apply(f.Visible, f.State.Page)
		f.State.Page.Index = f.Page.Index
		f.Records = f.Page.Items
		return f
	}}
}

// Standard returns filter → sort → paginate.
func Standard(m *filter.Memo) Pipeline {
	return Pipeline{FilterStage(m), SortStage(), PaginateStage()}
}
