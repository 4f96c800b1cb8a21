// Package model holds the canonical in-memory collection behind a list view.
//
// A Store owns one collection and its load lifecycle. The collection is
// only ever replaced whole, by Load or Refresh; every derived view (filtered,
// sorted, paged, selected) is computed from a copy.
//
// # Concurrency
//
// Store is safe for concurrent use. Loads may overlap; the result of the most
// recently started load wins and older results are discarded when they
// arrive. Concurrent Refresh calls share one in-flight fetch. Close cancels
// pending loads and drops their results.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/record"
)

var (
	// ErrNoFetcher is returned by Refresh before any Load.
	ErrNoFetcher = errors.New("model: no fetcher loaded")
	// ErrClosed is returned once the store is closed; late results are dropped.
	ErrClosed = errors.New("model: store closed")
	// ErrSuperseded is returned to a load whose result lost to a newer load.
	ErrSuperseded = errors.New("model: load superseded by a newer load")
	// ErrDuplicateID is wrapped in a LoadError when a batch repeats an id.
	ErrDuplicateID = errors.New("model: duplicate record id")
)

// Status is the load state of a Store.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Fetcher supplies a full collection. Timeouts are the fetcher's concern.
type Fetcher interface {
	Fetch(ctx context.Context) ([]record.Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]record.Record, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]record.Record, error) {
	return f(ctx)
}

// LoadError reports a failed fetch. The store keeps its previous collection.
type LoadError struct {
	Store string
	Gen   uint64
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Store, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// EventType categorizes store events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is sent to subscribers when the store changes state.
type Event struct {
	Type    EventType
	Store   string
	Records []record.Record // populated on EventCompleted; a copy
	Version uint64          // collection version after the event
	Gen     uint64
	Err     error // populated on EventError
}

// eventBuffer is the subscriber channel capacity.
const eventBuffer = 16

// Store holds the last-loaded collection and its load status.
type Store struct {
	name string
	log  *otel.Logger

	mu      sync.Mutex
	records []record.Record
	status  Status
	err     error
	version uint64
	fetcher Fetcher
	gen     uint64 // most recently started load
	closed  bool
	settled Status  // status before the in-flight loads started
	flight  *flight // most recently started load, nil when idle

	life   context.Context // cancelled by Close
	cancel context.CancelFunc

	refresh singleflight.Group
	events  chan Event
}

// flight is one running load. done is closed once err is set.
type flight struct {
	done chan struct{}
	err  error
}

// NewStore creates an idle, empty store. name identifies the collection in
// events ("customers", "mails"). log may be nil.
func NewStore(name string, log *otel.Logger) *Store {
	life, cancel := context.WithCancel(context.Background())
	return &Store{
		name:   name,
		log:    log,
		status:  StatusIdle,
		settled: StatusIdle,
		life:   life,
		cancel: cancel,
		events: make(chan Event, eventBuffer),
	}
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.name
}

// Load fetches with f and, on success, replaces the whole collection.
// On failure the previous collection is kept and a *LoadError is returned.
// f becomes the fetcher used by Refresh.
func (s *Store) Load(ctx context.Context, f Fetcher) error {
	if f == nil {
		return ErrNoFetcher
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.fetcher = f
	s.gen++
	gen := s.gen
	if s.status != StatusLoading {
		s.settled = s.status
	}
	s.status = StatusLoading
	fl := &flight{done: make(chan struct{})}
	s.flight = fl
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventStarted, Store: s.name, Gen: gen})
	s.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadStart, Comp: "store", View: s.name, Gen: gen})

	err := s.run(ctx, f, gen)

	s.mu.Lock()
	if s.flight == fl {
		s.flight = nil
	}
	s.mu.Unlock()
	fl.err = err
	close(fl.done)
	return err
}

// Refresh re-runs the last fetcher. Calls made while any load is in flight
// wait for the latest one and share its result instead of fetching again.
// A caller whose ctx ends stops waiting, but the shared load keeps going.
func (s *Store) Refresh(ctx context.Context) error {
	waited := false
	var f Fetcher
	for {
		s.mu.Lock()
		var (
			closed  bool
			fl      *flight
			lastErr error
		)
		closed, f, fl, lastErr = s.closed, s.fetcher, s.flight, s.err
		s.mu.Unlock()

		if closed {
			return ErrClosed
		}
		if f == nil {
			return ErrNoFetcher
		}
		if fl == nil {
			if waited {
				// The load that superseded ours has already been applied.
				return lastErr
			}
			break
		}

		waited = true
		select {
		case <-fl.done:
			if errors.Is(fl.err, ErrSuperseded) {
				continue
			}
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ch := s.refresh.DoChan("refresh", func() (any, error) {
		return nil, s.Load(s.life, f)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run performs the fetch for generation gen and applies the result if gen
// is still current.
func (s *Store) run(ctx context.Context, f Fetcher, gen uint64) error {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.life, cancel)
	defer stop()

	start := time.Now()
	records, fetchErr := f.Fetch(fctx)
	dur := time.Since(start)

	if fetchErr == nil {
		if id, dup := record.FirstDuplicate(records); dup {
			fetchErr = fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		s.discard(gen, ErrClosed)
		return ErrClosed
	case gen != s.gen:
		s.mu.Unlock()
		s.discard(gen, ErrSuperseded)
		return ErrSuperseded
	case fetchErr != nil:
		loadErr := &LoadError{Store: s.name, Gen: gen, Err: fetchErr}
		s.status = StatusError
		s.settled = StatusError
		s.err = loadErr
		version := s.version
		s.mu.Unlock()

		s.sendEvent(Event{Type: EventError, Store: s.name, Gen: gen, Version: version, Err: loadErr})
		s.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindLoadError, Comp: "store",
			View: s.name, Gen: gen, Dur: dur, Err: fetchErr.Error()})
		return loadErr
	}

	s.records = cloneRecords(records)
	s.version++
	s.status = StatusReady
	s.settled = StatusReady
	s.err = nil
	version := s.version
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventCompleted, Store: s.name, Gen: gen, Version: version, Records: snapshot})
	s.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadComplete, Comp: "store",
		View: s.name, Gen: gen, Dur: dur, Count: len(snapshot)})
	return nil
}

func (s *Store) discard(gen uint64, reason error) {
	s.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindLoadDiscard, Comp: "store",
		View: s.name, Gen: gen, Msg: reason.Error()})
}

// sendEvent sends without blocking; a slow subscriber loses events.
func (s *Store) sendEvent(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// Subscribe returns the event channel. It is never closed.
func (s *Store) Subscribe() <-chan Event {
	return s.events
}

// Close cancels in-flight loads. Results that arrive afterwards are dropped
// and the status returns to what it was before they started.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	if s.status == StatusLoading {
		s.status = s.settled
	}
	s.mu.Unlock()
	s.cancel()
}

// Records returns a copy of the collection.
func (s *Store) Records() []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Status returns the current load status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the last load error, or nil once a load succeeds.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Version increments on every applied load. Derived views key caches on it.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func cloneRecords(records []record.Record) []record.Record {
	out := make([]record.Record, len(records))
	copy(out, records)
	return out
}
