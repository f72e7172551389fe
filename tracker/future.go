package tracker

import (
	"sync"

	"github.com/ics-distsys/mrtracker/job"
)

// Future is the completion handle returned by Submit and Status: it
// resolves to the job's terminal error (nil on success) once the job
// reaches COMPLETE, or fails early with a shutdown/not-found/planner
// error.
type Future struct {
	JobId job.Id

	once sync.Once
	done chan struct{}
	err  error
}

func newFuture(id job.Id) *Future {
	return &Future{JobId: id, done: make(chan struct{})}
}

func completedFuture(id job.Id, err error) *Future {
	f := newFuture(id)
	f.complete(err)
	return f
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed once the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves and returns its terminal error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// IsDone reports whether the future has already resolved, without
// blocking.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
