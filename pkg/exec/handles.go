package exec

import (
	"fmt"
	"sync"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/engine"
)

// entry is one owned resource: a table, or a grouped table awaiting Agg.
type entry struct {
	df       *dataframe.DataFrame
	grouping *engine.Grouping
	context  ContextType
}

// handleTable maps tokens to owned resources. Tokens come from a monotonic
// generator scoped to the table, so a released token is never reissued and
// stale handles stay detectable. Token 0 is permanently invalid.
type handleTable struct {
	mu      sync.RWMutex
	next    uint64
	entries map[uint64]*entry
}

func newHandleTable() *handleTable {
	return &handleTable{
		next:    1,
		entries: make(map[uint64]*entry),
	}
}

func (t *handleTable) insert(e *entry) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.next
	t.next++
	t.entries[h] = e
	return h
}

func (t *handleTable) get(h uint64) (*entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return e, nil
}

// remove drops the entry and reports whether it existed. Removing an
// unknown handle is a no-op, which makes release idempotent.
func (t *handleTable) remove(h uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	delete(t.entries, h)
	return true
}

func (t *handleTable) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
