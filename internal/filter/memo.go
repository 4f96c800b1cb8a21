package filter

import (
	"sync"

	"github.com/abelbrown/panel/internal/record"
)

// Memo caches the last Apply result keyed on the records version, query and
// category. The records themselves are not compared; callers bump the
// version whenever the collection is replaced.
//
// Safe for concurrent use.
type Memo struct {
	mu       sync.Mutex
	valid    bool
	version  uint64
	query    Query
	category Category
	result   []record.Record

	hits   int
	misses int
}

// Apply returns the cached result when inputs match the previous call,
// otherwise recomputes. The returned slice must not be modified.
func (m *Memo) Apply(version uint64, records []record.Record, q Query, c Category) []record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.version == version && m.query.Equal(q) && m.category == c {
		m.hits++
		return m.result
	}

	m.misses++
	m.result = Apply(records, q, c)
	m.version = version
	// Fields is shared with the caller; keep our own copy for comparison.
	q.Fields = append([]string(nil), q.Fields...)
	m.query = q
	m.category = c
	m.valid = true
	return m.result
}

// Reset drops the cached result.
func (m *Memo) Reset() {
	m.mu.Lock()
	m.valid = false
	m.result = nil
	m.mu.Unlock()
}

// Stats returns cache hit and miss counts.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
