package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/panel/internal/otel"
)

// writeEvents emits evs through a real logger and returns the JSONL.
func writeEvents(t *testing.T, evs ...otel.Event) string {
	t.Helper()
	var buf bytes.Buffer
	l := otel.NewLogger(&buf)
	for _, ev := range evs {
		l.Emit(ev)
	}
	l.Close()
	return buf.String()
}

func TestReadTailLinesFilters(t *testing.T) {
	log := writeEvents(t,
		otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadStart, Comp: "store", View: "customers", Gen: 1},
		otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadComplete, Comp: "store", View: "customers", Gen: 1, Count: 30},
		otel.Event{Level: otel.LevelDebug, Kind: otel.KindDerive, Comp: "view", View: "mails", Count: 10, Total: 30},
	)
	log += "not json\n\n"
	log += writeEvents(t, otel.Event{Level: otel.LevelError, Kind: otel.KindLoadError, Comp: "store", View: "members", Err: "boom"})

	all := readTailLines(strings.NewReader(log), 10, eventFilter{}.match)
	assert.Len(t, all, 4)

	loads := readTailLines(strings.NewReader(log), 10, eventFilter{kind: "load"}.match)
	require.Len(t, loads, 3)
	assert.Equal(t, "load.error", loads[2].ev.Kind)

	warn := readTailLines(strings.NewReader(log), 10, eventFilter{level: "warn"}.match)
	require.Len(t, warn, 1)
	assert.Equal(t, "boom", warn[0].ev.Err)

	customers := readTailLines(strings.NewReader(log), 10, eventFilter{view: "customers"}.match)
	assert.Len(t, customers, 2)

	last := readTailLines(strings.NewReader(log), 2, eventFilter{}.match)
	require.Len(t, last, 2)
	assert.Equal(t, "view.derive", last[0].ev.Kind)
	assert.Equal(t, "load.error", last[1].ev.Kind)

	assert.Empty(t, readTailLines(strings.NewReader(log), 0, eventFilter{}.match))
}

func TestEventFilterSession(t *testing.T) {
	ev := eventRecord{SessionID: "a1b2c3d4", Kind: "load.start"}
	assert.True(t, eventFilter{session: "a1b2"}.match(ev))
	assert.False(t, eventFilter{session: "ffff"}.match(ev))
}

func TestFormatEvent(t *testing.T) {
	ev := eventRecord{
		Time:  time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		Level: "error",
		Kind:  "load.error",
		Comp:  "store",
		View:  "customers",
		Gen:   3,
		DurMs: 12.34,
		Err:   errors.New("connection refused").Error(),
	}
	line := formatEvent(ev)

	assert.True(t, strings.HasPrefix(line, "09:30:00.000 ERROR [store] load.error"), line)
	assert.Contains(t, line, "view=customers")
	assert.Contains(t, line, "(12.3ms)")
	assert.Contains(t, line, "gen=3")
	assert.Contains(t, line, "err=connection refused")
	assert.NotContains(t, line, "n=")
}

func TestTrimLine(t *testing.T) {
	assert.Equal(t, []byte("abc"), trimLine([]byte("abc\r\n")))
	assert.Empty(t, trimLine([]byte("\n")))
}
