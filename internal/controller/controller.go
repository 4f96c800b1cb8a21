// Package controller composes the list-view engines into one derivation.
//
// Controllers sit between the record store and the presentation layer. Each
// list view owns one Controller that turns the store's collection plus the
// user's state into an immutable Snapshot.
//
// # Architecture
//
//	┌─────────┐     ┌──────────────────────────────────────────┐     ┌──────┐
//	│  Model  │ ──> │ filter → sort → paginate → reconcile     │ ──> │ View │
//	│ (Store) │     │              (Controller)                │     │ (UI) │
//	└─────────┘     └──────────────────────────────────────────┘     └──────┘
//
// Every intent (SetQuery, ToggleSort, MoveNext, ...) updates the state and
// re-runs the whole pipeline in order, then reconciles the selection against
// the visible set. Nothing outside the pipeline writes the visible items.
//
// # Concurrency
//
// Controllers are safe for concurrent use, though intents are expected to
// come from one event loop. Listeners run after the lock is released.
// The Subscribe channel is buffered; if a subscriber doesn't keep up, new
// snapshots are dropped.
package controller

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/paging"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/selection"
)

// Mode selects single or multi selection.
type Mode int

const (
	// SingleSelect keeps one selected record and supports keyboard movement.
	SingleSelect Mode = iota
	// MultiSelect keeps a set of selected records with a page header checkbox.
	// The keyboard cursor is tracked separately from the set.
	MultiSelect
)

// Options configures a Controller.
type Options struct {
	Name          string // view name in events, e.g. "customers"
	Mode          Mode
	SearchFields  []string
	MatchMode     filter.MatchMode
	FieldPolicy   filter.FieldPolicy
	CategoryField string // empty disables SetCategory
	Sort          order.Spec
	PageSize      int
	Log           *otel.Logger
}

// PageInfo describes the current page.
type PageInfo struct {
	Index int // zero-based, clamped
	Count int // at least 1
	Total int // size of the visible set
	Size  int
	From  int // 1-based position of the first item shown, 0 when empty
	To    int
}

// Snapshot is the immutable result of one derivation.
type Snapshot struct {
	Seq      uint64 // increments on every derivation
	Version  uint64 // source collection version
	Query    string
	Category string
	Sort     order.Spec
	Page     PageInfo

	// VisibleItems are the records on the current page.
	VisibleItems []record.Record

	// Selection holds the selected ids: at most one in single mode, sorted
	// in multi mode.
	Selection []string

	// Cursor is the keyboard-focused id. In single mode it is the selection.
	Cursor string

	// Header is the page checkbox state; always None in single mode.
	Header selection.TriState
}

// IsSelected reports whether id is in the selection.
func (s Snapshot) IsSelected(id string) bool {
	return slices.Contains(s.Selection, id)
}

// Item returns the record with id from the current page.
func (s Snapshot) Item(id string) (record.Record, bool) {
	for _, r := range s.VisibleItems {
		if r.ID == id {
			return r, true
		}
	}
	return record.Record{}, false
}

// SelectionChanged reports whether the selection or cursor differs between
// two snapshots. Views use it to scroll the new selection into view.
func SelectionChanged(prev, next Snapshot) bool {
	return prev.Cursor != next.Cursor || !slices.Equal(prev.Selection, next.Selection)
}

// snapshotBuffer is the Subscribe channel capacity.
const snapshotBuffer = 16

// Controller derives snapshots for one list view.
type Controller struct {
	name string
	mode Mode
	log  *otel.Logger

	mu       sync.Mutex
	opts     Options
	records  []record.Record
	source   uint64 // version given to SetRecords
	gen      uint64 // bumps per SetRecords; keys the filter memo
	state    State
	memo     filter.Memo
	pipeline Pipeline

	cursor  selection.Single
	multi   *selection.Multi
	visible []string // ids of the visible set from the last derivation
	pageIDs []string

	seq  uint64
	snap Snapshot

	listeners []func(Snapshot)
	events    chan Snapshot
}

// New creates a Controller with no records and derives its first snapshot.
func New(opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = paging.DefaultPageSize
	}
	c := &Controller{
		name:   opts.Name,
		mode:   opts.Mode,
		log:    opts.Log,
		opts:   opts,
		multi:  selection.NewMulti(),
		events: make(chan Snapshot, snapshotBuffer),
		state: State{
			Query: filter.Query{
				Fields: slices.Clone(opts.SearchFields),
				Mode:   opts.MatchMode,
				Policy: opts.FieldPolicy,
			},
			Category: filter.Category{Field: opts.CategoryField},
			Sort:     opts.Sort,
			Page:     paging.Spec{Size: opts.PageSize},
		},
	}
	c.pipeline = append(Standard(&c.memo), Stage{Name: "reconcile", Run: c.reconcile})
	c.derive()
	return c
}

// Mode returns the selection mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Pipeline returns the derivation stages in order.
func (c *Controller) Pipeline() Pipeline {
	return slices.Clone(c.pipeline)
}

// Snapshot returns the latest snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// State returns the current user state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Query.Fields = slices.Clone(st.Query.Fields)
	return st
}

// OnChange registers fn to run after every derivation that changed something.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Subscribe returns a channel of snapshots. It is never closed.
func (c *Controller) Subscribe() <-chan Snapshot {
	return c.events
}

// Bind follows s until ctx ends, re-deriving on every completed load. The
// store's current collection is applied immediately. Bind consumes the
// store's event channel, so a bound store should have no other subscriber.
func (c *Controller) Bind(ctx context.Context, s *model.Store) {
	if v := s.Version(); v > 0 {
		c.SetRecords(s.Records(), v)
	}
	events := s.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if ev.Type == model.EventCompleted {
					c.SetRecords(ev.Records, ev.Version)
				}
			}
		}
	}()
}

// SetRecords replaces the source collection. version identifies it; setting
// the version already held is a no-op.
func (c *Controller) SetRecords(records []record.Record, version uint64) Snapshot {
	return c.update(func() bool {
		if version != 0 && version == c.source {
			return false
		}
		c.records = slices.Clone(records)
		c.source = version
		c.gen++
		return true
	})
}

// SetQuery changes the search text and returns to the first page.
func (c *Controller) SetQuery(text string) Snapshot {
	return c.update(func() bool {
		if c.state.Query.Text == text {
			return false
		}
		c.state.Query.Text = text
		c.state.Page.Index = 0
		return true
	})
}

// SetCategory changes the categorical filter value and returns to the first
// page. "" and filter.AllCategories disable it.
func (c *Controller) SetCategory(value string) Snapshot {
	return c.update(func() bool {
		if c.opts.CategoryField == "" || c.state.Category.Value == value {
			return false
		}
		c.state.Category.Value = value
		c.state.Page.Index = 0
		return true
	})
}

// SetSort replaces the sort and returns to the first page. An empty field
// clears it.
func (c *Controller) SetSort(field string, dir order.Direction) Snapshot {
	spec := order.Spec{Field: field, Dir: dir}
	if field == "" {
		spec = order.Spec{}
	} else if dir != order.Desc {
		spec.Dir = order.Asc
	}
	return c.setSort(spec)
}

// SetSortExpr parses an order expression such as "name desc" and applies it.
func (c *Controller) SetSortExpr(expr string) (Snapshot, error) {
	spec, err := order.Parse(expr)
	if err != nil {
		return c.Snapshot(), err
	}
	return c.setSort(spec), nil
}

// ToggleSort cycles field through ascending, descending and unsorted.
func (c *Controller) ToggleSort(field string) Snapshot {
	return c.update(func() bool {
		return c.sortBy(c.state.Sort.Toggle(field))
	})
}

func (c *Controller) setSort(spec order.Spec) Snapshot {
	return c.update(func() bool {
		return c.sortBy(spec)
	})
}

func (c *Controller) sortBy(spec order.Spec) bool {
	if c.state.Sort == spec {
		return false
	}
	c.state.Sort = spec
	c.state.Page.Index = 0
	return true
}

// SetPage requests a page. Out-of-range indexes clamp.
func (c *Controller) SetPage(index int) Snapshot {
	return c.update(func() bool {
		if c.state.Page.Index == index {
			return false
		}
		c.state.Page.Index = index
		c.land()
		return true
	})
}

// NextPage moves one page forward, staying on the last page. A cursor left
// behind moves to the first row of the new page.
func (c *Controller) NextPage() Snapshot {
	return c.update(func() bool {
		if c.state.Page.Index >= c.snap.Page.Count-1 {
			return false
		}
		c.state.Page.Index++
		c.land()
		return true
	})
}

// PrevPage moves one page back, staying on the first page.
func (c *Controller) PrevPage() Snapshot {
	return c.update(func() bool {
		if c.state.Page.Index <= 0 {
			return false
		}
		c.state.Page.Index--
		c.land()
		return true
	})
}

// SetPageSize changes the page size, keeping the first item of the current
// page in view.
func (c *Controller) SetPageSize(n int) Snapshot {
	if n <= 0 {
		n = paging.DefaultPageSize
	}
	return c.update(func() bool {
		old := c.state.Page
		if old.Size == n {
			return false
		}
		c.state.Page = paging.Spec{Index: paging.PageOf(old.Index*old.Size, n), Size: n}
		c.land()
		return true
	})
}

// Select selects id. In single mode an id outside the visible set clears the
// selection and the page follows the selected record. In multi mode id is
// added to the set and focused.
func (c *Controller) Select(id string) Snapshot {
	return c.update(func() bool {
		if c.mode == MultiSelect {
			changed := false
			if !c.multi.Has(id) {
				changed = c.multi.Toggle(id, c.visible)
			}
			return c.focus(id) || changed
		}
		changed := c.cursor.Select(id, c.visible)
		c.follow()
		return changed
	})
}

// Toggle flips id. In single mode selecting the selected id clears it.
func (c *Controller) Toggle(id string) Snapshot {
	return c.update(func() bool {
		if c.mode == MultiSelect {
			return c.multi.Toggle(id, c.visible)
		}
		if cur, ok := c.cursor.Selected(); ok && cur == id {
			return c.cursor.Clear()
		}
		changed := c.cursor.Select(id, c.visible)
		c.follow()
		return changed
	})
}

// ToggleCursor toggles the focused record in multi mode. In single mode it
// clears the selection.
func (c *Controller) ToggleCursor() Snapshot {
	return c.update(func() bool {
		id, ok := c.cursor.Selected()
		if !ok {
			return false
		}
		if c.mode == MultiSelect {
			return c.multi.Toggle(id, c.visible)
		}
		return c.cursor.Clear()
	})
}

// ToggleAll implements the page header checkbox: a fully selected page is
// deselected, anything else selects the whole page. Single mode ignores it.
func (c *Controller) ToggleAll() Snapshot {
	return c.update(func() bool {
		if c.mode != MultiSelect || len(c.pageIDs) == 0 {
			return false
		}
		c.multi.ToggleAll(c.pageIDs)
		return true
	})
}

// ClearSelection drops every selected id.
func (c *Controller) ClearSelection() Snapshot {
	return c.update(func() bool {
		if c.mode == MultiSelect {
			if c.multi.Len() == 0 {
				return false
			}
			c.multi.ClearAll()
			return true
		}
		return c.cursor.Clear()
	})
}

// MoveNext moves the cursor to the next visible record, or the first row of
// the current page when nothing is focused. The page follows the cursor.
// No wrap.
func (c *Controller) MoveNext() Snapshot {
	return c.update(func() bool {
		if _, ok := c.cursor.Selected(); !ok {
			if rows := c.pageRows(); len(rows) > 0 {
				return c.cursor.Select(rows[0], c.visible)
			}
		}
		changed := c.cursor.MoveNext(c.visible)
		c.follow()
		return changed
	})
}

// MovePrevious moves the cursor to the previous visible record. No-op when
// nothing is focused or the first record is focused.
func (c *Controller) MovePrevious() Snapshot {
	return c.update(func() bool {
		changed := c.cursor.MovePrevious(c.visible)
		c.follow()
		return changed
	})
}

// SelectionChanges counts cursor transitions. Views compare it between
// frames to trigger scroll-into-view.
func (c *Controller) SelectionChanges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Changes()
}

// focus moves the cursor to id in multi mode.
func (c *Controller) focus(id string) bool {
	changed := c.cursor.Select(id, c.visible)
	c.follow()
	return changed
}

// follow moves the page to the one holding the cursor.
func (c *Controller) follow() {
	id, ok := c.cursor.Selected()
	if !ok {
		return
	}
	if i := slices.Index(c.visible, id); i >= 0 {
		c.state.Page.Index = paging.PageOf(i, c.state.Page.Size)
	}
}

// land puts the cursor on the first row of the requested page when it sits
// on another page. In single mode an empty selection stays empty.
func (c *Controller) land() {
	rows := c.pageRows()
	if len(rows) == 0 {
		return
	}
	id, ok := c.cursor.Selected()
	if ok && slices.Contains(rows, id) {
		return
	}
	if !ok && c.mode != MultiSelect {
		return
	}
	c.cursor.Select(rows[0], c.visible)
}

// pageRows returns the visible ids on the requested page, clamped.
func (c *Controller) pageRows() []string {
	size, n := c.state.Page.Size, len(c.visible)
	if n == 0 || size <= 0 {
		return nil
	}
	index := min(max(c.state.Page.Index, 0), (n-1)/size)
	return c.visible[index*size : min(index*size+size, n)]
}

// update applies fn under the lock and, when it reports a change, re-derives
// and notifies listeners.
func (c *Controller) update(fn func() bool) Snapshot {
	c.mu.Lock()
	if !fn() {
		snap := c.snap
		c.mu.Unlock()
		return snap
	}
	prevCursor := c.snap.Cursor
	c.derive()
	snap := c.snap
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	if snap.Cursor != prevCursor && otel.TraceEnabled() {
		c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSelect, Comp: "view",
			View: c.name, Selected: snap.Cursor})
	}
	for _, fn := range listeners {
		fn(snap)
	}
	select {
	case c.events <- snap:
	default:
	}
	return snap
}

// derive runs the pipeline and stores the snapshot. Callers hold c.mu.
func (c *Controller) derive() {
	start := time.Now()
	requested := c.state.Page.Index

	out := c.pipeline.Run(Frame{State: c.state, Version: c.gen, Records: c.records})
	c.state.Page.Index = out.Page.Index

	if out.Page.Index != requested {
		c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageClamp, Comp: "view",
			View: c.name, Page: out.Page.Index, Total: out.Page.Total,
			Msg: "requested page out of range"})
	}

	c.seq++
	from, to := out.Page.Range()
	snap := Snapshot{
		Seq:      c.seq,
		Version:  c.source,
		Query:    c.state.Query.Text,
		Category: c.state.Category.Value,
		Sort:     c.state.Sort,
		Page: PageInfo{
			Index: out.Page.Index,
			Count: out.Page.Count,
			Total: out.Page.Total,
			Size:  out.Page.Size,
			From:  from,
			To:    to,
		},
		VisibleItems: out.Page.Items,
	}
	if id, ok := c.cursor.Selected(); ok {
		snap.Cursor = id
	}
	if c.mode == MultiSelect {
		snap.Selection = c.multi.IDs()
		snap.Header = c.multi.State(c.pageIDs)
	} else if snap.Cursor != "" {
		snap.Selection = []string{snap.Cursor}
	}
	if snap.Selection == nil {
		snap.Selection = []string{}
	}
	c.snap = snap

	if otel.TraceEnabled() {
		c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDerive, Comp: "view",
			View: c.name, Dur: time.Since(start), Count: len(out.Page.Items), Total: out.Page.Total,
			Query: strings.TrimSpace(c.state.Query.Text), Sort: c.state.Sort.String(),
			Page: out.Page.Index, Selected: snap.Cursor})
	}
}

// reconcile is the last pipeline stage: it drops selected ids that left the
// visible set. Callers hold c.mu.
func (c *Controller) reconcile(f Frame) Frame {
	c.visible = record.IDs(f.Visible)
	c.pageIDs = record.IDs(f.Page.Items)
	c.cursor.Reconcile(c.visible)
	if c.mode == MultiSelect {
		c.multi.Reconcile(c.visible)
	}
	return f
}
