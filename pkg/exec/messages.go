package exec

import "sync"

// messageTable owns error message strings until the caller frees them. IDs
// are monotonic like handles; freeing an unknown or already-freed ID is a
// no-op.
type messageTable struct {
	mu   sync.Mutex
	next uint64
	msgs map[uint64]string
}

func newMessageTable() *messageTable {
	return &messageTable{
		next: 1,
		msgs: make(map[uint64]string),
	}
}

func (t *messageTable) register(msg string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.msgs[id] = msg
	return id
}

func (t *messageTable) free(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.msgs[id]; !ok {
		return false
	}
	delete(t.msgs, id)
	return true
}

func (t *messageTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}
