package localstate

import (
	cmap "github.com/orcaman/concurrent-map"

	"github.com/ics-distsys/mrtracker/job"
)

// Registry is the process-wide map from JobId to *State: a concurrent-map
// keyed by entity id, holding per-entity mutable scheduling state for
// map/reduce/combine bookkeeping.
type Registry struct {
	jobs cmap.ConcurrentMap
}

func NewRegistry() *Registry {
	return &Registry{jobs: cmap.New()}
}

// GetOrCreate returns the State for id, creating it on first observation.
func (r *Registry) GetOrCreate(id job.Id) *State {
	key := id.String()

	if v, ok := r.jobs.Get(key); ok {
		return v.(*State)
	}

	st := New()
	r.jobs.SetIfAbsent(key, st)

	v, _ := r.jobs.Get(key)
	return v.(*State)
}

// Get returns the State for id, if one has been created.
func (r *Registry) Get(id job.Id) (*State, bool) {
	v, ok := r.jobs.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*State), true
}

// Remove discards a job's local state, called once the job reaches
// COMPLETE.
func (r *Registry) Remove(id job.Id) {
	r.jobs.Remove(id.String())
}

// Len reports the number of jobs with local state on this node.
func (r *Registry) Len() int {
	return r.jobs.Count()
}
