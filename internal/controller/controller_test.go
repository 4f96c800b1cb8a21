package controller

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/record"
	"github.com/abelbrown/panel/internal/selection"
)

func customer(id, name, status string) record.Record {
	return record.New(id, map[string]record.Value{
		"name":   record.Str(name),
		"email":  record.Str(strings.ToLower(name) + "@example.com"),
		"status": record.Str(status),
	})
}

// letters returns n records with ids "A", "B", ... and matching names.
func letters(n int) []record.Record {
	items := make([]record.Record, n)
	for i := range items {
		id := string(rune('A' + i))
		items[i] = customer(id, "name "+id, "subscribed")
	}
	return items
}

func ids(items []record.Record) []string {
	return record.IDs(items)
}

func newCustomers(mode Mode, size int) *Controller {
	return New(Options{
		Name:          "customers",
		Mode:          mode,
		SearchFields:  []string{"name", "email"},
		CategoryField: "status",
		PageSize:      size,
	})
}

func TestPipelineOrder(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	assert.Equal(t, []string{"filter", "sort", "paginate", "reconcile"}, c.Pipeline().Names())
	assert.Equal(t, []string{"filter", "sort", "paginate"}, Standard(nil).Names())
}

func TestEmptyController(t *testing.T) {
	snap := newCustomers(MultiSelect, 10).Snapshot()

	assert.Empty(t, snap.VisibleItems)
	assert.NotNil(t, snap.VisibleItems)
	assert.Equal(t, 1, snap.Page.Count)
	assert.Equal(t, 0, snap.Page.Index)
	assert.Equal(t, 0, snap.Page.Total)
	assert.Equal(t, selection.None, snap.Header)
	assert.Empty(t, snap.Selection)
}

func TestDerivationIsIdempotent(t *testing.T) {
	frame := Frame{
		State: State{
			Query: filter.Query{Text: "name", Fields: []string{"name"}},
			Sort:  order.Spec{Field: "name", Dir: order.Desc},
		},
		Version: 1,
		Records: letters(15),
	}
	p := Standard(nil)

	first := p.Run(frame)
	second := p.Run(frame)
	assert.Equal(t, first.Page, second.Page)
	assert.Equal(t, first.Records, second.Records)

	c := newCustomers(SingleSelect, 10)
	c.SetRecords(letters(15), 1)
	c.SetSort("name", order.Desc)
	a := c.SetQuery("name")
	c.SetQuery("")
	b := c.SetQuery("name")
	assert.Equal(t, a.VisibleItems, b.VisibleItems)
	assert.Equal(t, a.Page, b.Page)
}

func TestCategoricalFilter(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords([]record.Record{
		customer("1", "Alex", "subscribed"),
		customer("2", "Jordan", "unsubscribed"),
		customer("3", "Taylor", "bounced"),
	}, 1)

	snap := c.SetCategory("subscribed")
	require.Len(t, snap.VisibleItems, 1)
	assert.Equal(t, "1", snap.VisibleItems[0].ID)
	assert.Equal(t, 1, snap.Page.Total)

	snap = c.SetCategory(filter.AllCategories)
	assert.Equal(t, 3, snap.Page.Total)
}

func TestPageCountFollowsFilteredTotal(t *testing.T) {
	items := letters(12)
	for i := 10; i < 12; i++ {
		items[i] = customer(items[i].ID, "other", "subscribed")
	}
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(items, 1)
	assert.Equal(t, 2, c.Snapshot().Page.Count)

	snap := c.SetQuery("name")
	assert.Equal(t, 10, snap.Page.Total)
	assert.Equal(t, 1, snap.Page.Count)
}

func TestQueryResetsPage(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(25), 1)

	snap := c.SetPage(2)
	assert.Equal(t, 2, snap.Page.Index)
	assert.Equal(t, 21, snap.Page.From)
	assert.Equal(t, 25, snap.Page.To)

	assert.Equal(t, 0, c.SetQuery("name").Page.Index)
	c.SetPage(1)
	assert.Equal(t, 0, c.ToggleSort("name").Page.Index)
	c.SetPage(1)
	assert.Equal(t, 0, c.SetCategory("bounced").Page.Index)
}

func TestPageClampsWhenRecordsShrink(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(25), 1)
	assert.Equal(t, 2, c.SetPage(5).Page.Index)

	snap := c.SetRecords(letters(5), 2)
	assert.Equal(t, 0, snap.Page.Index)
	assert.Len(t, snap.VisibleItems, 5)
}

func TestNextPrevPage(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(25), 1)

	assert.Equal(t, 0, c.PrevPage().Page.Index)
	assert.Equal(t, 1, c.NextPage().Page.Index)
	assert.Equal(t, 2, c.NextPage().Page.Index)
	assert.Equal(t, 2, c.NextPage().Page.Index)
	assert.Equal(t, 1, c.PrevPage().Page.Index)
}

func TestSetPageSizeKeepsFirstItem(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(25), 1)
	c.SetPage(2) // starts at item 20

	snap := c.SetPageSize(5)
	assert.Equal(t, 4, snap.Page.Index)
	assert.Equal(t, "U", snap.VisibleItems[0].ID)
	assert.Equal(t, 5, snap.Page.Count)
}

func TestSortToggleCycle(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords([]record.Record{
		customer("1", "Bea", "subscribed"),
		customer("2", "Abe", "subscribed"),
		customer("3", "Cal", "subscribed"),
	}, 1)

	assert.Equal(t, []string{"2", "1", "3"}, ids(c.ToggleSort("name").VisibleItems))
	assert.Equal(t, []string{"3", "1", "2"}, ids(c.ToggleSort("name").VisibleItems))
	snap := c.ToggleSort("name")
	assert.True(t, snap.Sort.None())
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.VisibleItems))
}

func TestSetSortExpr(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(3), 1)

	snap, err := c.SetSortExpr("name desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, ids(snap.VisibleItems))

	_, err = c.SetSortExpr("name, email")
	assert.ErrorIs(t, err, order.ErrMultiField)
}

func TestSingleSelectionClearedWhenFilteredOut(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	c.SetRecords([]record.Record{
		customer("1", "Alex", "subscribed"),
		customer("2", "Jordan", "subscribed"),
	}, 1)

	snap := c.Select("1")
	assert.Equal(t, []string{"1"}, snap.Selection)
	assert.Equal(t, "1", snap.Cursor)

	snap = c.SetQuery("jordan")
	assert.Empty(t, snap.Selection)
	assert.Empty(t, snap.Cursor)

	// clearing the query does not bring the selection back
	assert.Empty(t, c.SetQuery("").Selection)
}

func TestMultiSelectionDropsOnlyFilteredOut(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords([]record.Record{
		customer("1", "Alex", "subscribed"),
		customer("2", "Jordan", "subscribed"),
		customer("3", "Jordy", "bounced"),
	}, 1)

	c.Toggle("1")
	c.Toggle("2")
	snap := c.Toggle("3")
	assert.Equal(t, []string{"1", "2", "3"}, snap.Selection)

	snap = c.SetQuery("jord")
	assert.Equal(t, []string{"2", "3"}, snap.Selection)
	assert.Equal(t, selection.All, snap.Header)
}

func TestSelectAbsentIDIsNoSelection(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	c.SetRecords(letters(3), 1)
	c.Select("A")

	snap := c.Select("missing")
	assert.Empty(t, snap.Selection)
}

func TestKeyboardNavigationBounds(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	c.SetRecords(letters(3), 1)

	assert.Empty(t, c.MovePrevious().Cursor)
	assert.Equal(t, "A", c.MoveNext().Cursor)
	assert.Equal(t, "A", c.MovePrevious().Cursor)
	c.MoveNext()
	assert.Equal(t, "C", c.MoveNext().Cursor)
	assert.Equal(t, "C", c.MoveNext().Cursor, "no wrap")
}

func TestKeyboardNavigationCrossesPages(t *testing.T) {
	c := newCustomers(SingleSelect, 2)
	c.SetRecords(letters(5), 1)

	c.MoveNext()
	c.MoveNext()
	snap := c.MoveNext()
	assert.Equal(t, "C", snap.Cursor)
	assert.Equal(t, 1, snap.Page.Index)
	_, ok := snap.Item("C")
	assert.True(t, ok)

	snap = c.MovePrevious()
	assert.Equal(t, "B", snap.Cursor)
	assert.Equal(t, 0, snap.Page.Index)

	snap = c.Select("E")
	assert.Equal(t, 2, snap.Page.Index)
}

func TestSingleToggleDeselects(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	c.SetRecords(letters(3), 1)

	assert.Equal(t, "B", c.Toggle("B").Cursor)
	assert.Empty(t, c.Toggle("B").Selection)
}

func TestHeaderCheckbox(t *testing.T) {
	c := newCustomers(MultiSelect, 2)
	c.SetRecords(letters(4), 1)

	assert.Equal(t, selection.None, c.Snapshot().Header)
	assert.Equal(t, selection.Some, c.Toggle("A").Header)

	snap := c.ToggleAll()
	assert.Equal(t, selection.All, snap.Header)
	assert.Equal(t, []string{"A", "B"}, snap.Selection)

	// next page is untouched
	snap = c.NextPage()
	assert.Equal(t, selection.None, snap.Header)
	assert.Equal(t, []string{"A", "B"}, snap.Selection)

	c.PrevPage()
	snap = c.ToggleAll()
	assert.Equal(t, selection.None, snap.Header)
	assert.Empty(t, snap.Selection)
}

func TestMultiCursorIsSeparateFromSelection(t *testing.T) {
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(letters(3), 1)

	snap := c.MoveNext()
	assert.Equal(t, "A", snap.Cursor)
	assert.Empty(t, snap.Selection)

	snap = c.ToggleCursor()
	assert.Equal(t, []string{"A"}, snap.Selection)

	c.MoveNext()
	snap = c.ToggleCursor()
	assert.Equal(t, []string{"A", "B"}, snap.Selection)

	snap = c.ClearSelection()
	assert.Empty(t, snap.Selection)
	assert.Equal(t, "B", snap.Cursor)
}

func TestOnChangeAndSubscribe(t *testing.T) {
	c := newCustomers(SingleSelect, 10)
	var got []Snapshot
	c.OnChange(func(s Snapshot) { got = append(got, s) })

	c.SetRecords(letters(3), 1)
	c.SetQuery("")       // unchanged
	c.SetRecords(nil, 1) // same version
	prev := c.Snapshot()
	next := c.MoveNext()

	require.Len(t, got, 2)
	assert.True(t, got[1].Seq > got[0].Seq)
	assert.True(t, SelectionChanged(prev, next))
	assert.False(t, SelectionChanged(next, next))
	assert.Equal(t, 1, c.SelectionChanges())

	select {
	case s := <-c.Subscribe():
		assert.Equal(t, got[0].Seq, s.Seq)
	default:
		t.Fatal("expected a snapshot on the channel")
	}
}

func TestCategoryIgnoredWithoutField(t *testing.T) {
	c := New(Options{Name: "members", SearchFields: []string{"name"}})
	c.SetRecords(letters(3), 1)
	assert.Equal(t, 3, c.SetCategory("bounced").Page.Total)
}

func TestBindFollowsStore(t *testing.T) {
	s := model.NewStore("customers", nil)
	defer s.Close()

	n := 3
	f := model.FetcherFunc(func(ctx context.Context) ([]record.Record, error) {
		return letters(n), nil
	})
	require.NoError(t, s.Load(context.Background(), f))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := newCustomers(MultiSelect, 10)
	c.Bind(ctx, s)
	assert.Equal(t, 3, c.Snapshot().Page.Total)

	n = 7
	require.NoError(t, s.Refresh(context.Background()))
	assert.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.Page.Total == 7 && snap.Version == 2
	}, time.Second, 5*time.Millisecond)
}

func TestManyRecordsAcrossPages(t *testing.T) {
	items := make([]record.Record, 0, 30)
	for i := range 30 {
		items = append(items, customer(fmt.Sprintf("c%02d", i), fmt.Sprintf("Customer %02d", i), "subscribed"))
	}
	c := newCustomers(MultiSelect, 10)
	c.SetRecords(items, 1)

	snap := c.SetQuery("customer 2")
	assert.Equal(t, 10, snap.Page.Total)
	assert.Equal(t, "c20", snap.VisibleItems[0].ID)
}

func TestPagingMovesCursorOntoPage(t *testing.T) {
	for name, mode := range map[string]Mode{"multi": MultiSelect, "single": SingleSelect} {
		t.Run(name, func(t *testing.T) {
			c := newCustomers(mode, 2)
			c.SetRecords(letters(6), 1)

			assert.Equal(t, "A", c.MoveNext().Cursor)

			c.NextPage()
			snap := c.NextPage()
			assert.Equal(t, 2, snap.Page.Index)
			assert.Equal(t, "E", snap.Cursor)
			assert.Equal(t, []string{"E", "F"}, ids(snap.VisibleItems))

			snap = c.MoveNext()
			assert.Equal(t, 2, snap.Page.Index, "moving stays on the paged-to page")
			assert.Equal(t, "F", snap.Cursor)

			snap = c.PrevPage()
			assert.Equal(t, "C", snap.Cursor)
			snap = c.MovePrevious()
			assert.Equal(t, "B", snap.Cursor)
			assert.Equal(t, 0, snap.Page.Index)
		})
	}
}

func TestPagingKeepsCursorAlreadyOnPage(t *testing.T) {
	c := newCustomers(MultiSelect, 2)
	c.SetRecords(letters(6), 1)
	c.Select("D")
	c.ClearSelection()

	snap := c.SetPage(1)
	assert.Equal(t, "D", snap.Cursor)
	assert.Empty(t, snap.Selection)

	snap = c.SetPageSize(4)
	assert.Equal(t, 0, snap.Page.Index)
	assert.Equal(t, "D", snap.Cursor)
}

func TestPagingWithoutSelectionInSingleMode(t *testing.T) {
	c := newCustomers(SingleSelect, 2)
	c.SetRecords(letters(6), 1)

	snap := c.SetPage(2)
	assert.Empty(t, snap.Cursor)
	assert.Empty(t, snap.Selection)

	snap = c.MoveNext()
	assert.Equal(t, "E", snap.Cursor)
	assert.Equal(t, 2, snap.Page.Index)
}
