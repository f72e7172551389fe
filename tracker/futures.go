package tracker

import (
	"sync"

	"github.com/ics-distsys/mrtracker/job"
)

// futureTable is the process-wide table of outstanding completion futures.
// It must support concurrent putIfAbsent/get/remove from submitter
// goroutines, the dispatcher goroutine, and shutdown all at once.
type futureTable struct {
	mu sync.Mutex
	m  map[job.Id]*Future
}

func newFutureTable() *futureTable {
	return &futureTable{m: make(map[job.Id]*Future)}
}

// putIfAbsent inserts f under id if absent, returning the table's entry
// (either the freshly inserted f, or whatever was already there) and
// whether the insertion actually happened.
func (t *futureTable) putIfAbsent(id job.Id, f *Future) (*Future, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.m[id]; ok {
		return existing, false
	}
	t.m[id] = f
	return f, true
}

func (t *futureTable) get(id job.Id) (*Future, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.m[id]
	return f, ok
}

func (t *futureTable) remove(id job.Id) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.m, id)
}

// drain returns every future currently registered and clears the table,
// used by shutdown to fail every outstanding completion future.
func (t *futureTable) drain() []*Future {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Future, 0, len(t.m))
	for _, f := range t.m {
		out = append(out, f)
	}
	t.m = make(map[job.Id]*Future)
	return out
}
