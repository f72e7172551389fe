/*
Copyright 2026 ICS-DISTSYS.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package localstate implements the per-node view of a job: which
// mappers/reducers/combiners this node has already scheduled, completion
// counters, and the once-only cancellation latch. Every operation is safe
// for concurrent use, since completion callbacks, store-change events and
// node-loss events may all touch the same job's state from different
// goroutines.
package localstate

import (
	"sync"
	"sync/atomic"

	"github.com/ics-distsys/mrtracker/job"
)

// State is the process-local bookkeeping for a single job on this node. It
// is created lazily on the first observation of a job relevant to this
// node and removed when the job reaches COMPLETE.
type State struct {
	mu            sync.Mutex
	currMappers   map[string]struct{}
	currReducers  map[int]struct{}
	completedMaps int

	// expectedMappers is snapshotted once, the first time the controller
	// dispatches this node's full mapper batch in a single pass. This
	// avoids a race when mappers could still be scheduled after earlier
	// ones complete: the "last mapper" check compares completedMaps
	// against this snapshot, not against the live size of currMappers.
	expectedMappers int32

	cancelled int32 // atomic latch, 0 or 1
}

func New() *State {
	return &State{
		currMappers:  make(map[string]struct{}),
		currReducers: make(map[int]struct{}),
	}
}

// AddMapper records split as scheduled on this node. Returns true only the
// first time a given split is added.
func (s *State) AddMapper(split job.InputSplit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.currMappers[split.ID()]; ok {
		return false
	}
	s.currMappers[split.ID()] = struct{}{}
	return true
}

// AddReducer records idx as scheduled on this node. Returns true only the
// first time a given index is added.
func (s *State) AddReducer(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.currReducers[idx]; ok {
		return false
	}
	s.currReducers[idx] = struct{}{}
	return true
}

// MapperScheduled reports whether split has already been handed to the
// task executor on this node.
func (s *State) MapperScheduled(split job.InputSplit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.currMappers[split.ID()]
	return ok
}

// ReducerScheduled reports whether idx has already been handed to the task
// executor on this node.
func (s *State) ReducerScheduled(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.currReducers[idx]
	return ok
}

// CurrMappers returns a snapshot of every split scheduled on this node.
func (s *State) CurrMappers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.currMappers))
	for k := range s.currMappers {
		out = append(out, k)
	}
	return out
}

// SetExpectedMappers snapshots the size of a single controller dispatch
// pass. Only the first call has an effect; later calls are no-ops, since a
// node's mappers are meant to be dispatched in one pass.
func (s *State) SetExpectedMappers(n int) {
	atomic.CompareAndSwapInt32(&s.expectedMappers, 0, int32(n))
}

// IncCompletedMappers increments the completed-mapper counter and reports
// whether this was the last expected mapper on this node.
func (s *State) IncCompletedMappers() (isLast bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completedMaps++
	expected := int(atomic.LoadInt32(&s.expectedMappers))
	return expected > 0 && s.completedMaps >= expected
}

// OnCancel returns true exactly once per State: the first caller is
// responsible for invoking the task executor's cancellation; subsequent
// callers (e.g. a second CANCELLING observation) get false and must not
// cancel again.
func (s *State) OnCancel() bool {
	return atomic.CompareAndSwapInt32(&s.cancelled, 0, 1)
}
