package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is read on every pipeline derivation; tests flip it.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("PANEL_TRACE") != "")
}

// TraceEnabled reports whether PANEL_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the flag for testing.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
