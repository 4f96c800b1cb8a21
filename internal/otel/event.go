// Package otel provides structured observability for panel.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// Record store loads always emit; per-derivation pipeline events are only
// emitted when PANEL_TRACE is set.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Record store events
	KindLoadStart    EventKind = "load.start"
	KindLoadComplete EventKind = "load.complete"
	KindLoadError    EventKind = "load.error"
	KindLoadDiscard  EventKind = "load.discard" // superseded or closed, result dropped

	// View pipeline events
	KindDerive    EventKind = "view.derive"
	KindSelect    EventKind = "view.select"
	KindPageClamp EventKind = "view.page_clamp"

	// Fetch collaborator events
	KindFetchError EventKind = "fetch.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time     `json:"t"`
	Level     Level         `json:"level,omitempty"`
	Kind      EventKind     `json:"kind"`
	Comp      string        `json:"comp,omitempty"` // "store", "view", "fetch", "main"
	SessionID string        `json:"session_id,omitempty"`
	View      string        `json:"view,omitempty"` // "customers", "members", "mails"
	Gen       uint64        `json:"gen,omitempty"`  // load generation
	Dur       time.Duration `json:"-"`
	DurMs     float64       `json:"dur_ms,omitempty"`
	Count     int           `json:"count,omitempty"`
	Total     int           `json:"total,omitempty"`
	Query     string        `json:"query,omitempty"`
	Sort      string        `json:"sort,omitempty"`
	Page      int           `json:"page,omitempty"`
	Selected  string        `json:"selected,omitempty"`
	Err       string        `json:"err,omitempty"`
	Msg       string        `json:"msg,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
