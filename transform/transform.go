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

// Package transform implements the pure functions that evolve a job.Metadata
// snapshot. Every constructor here returns a Closure: a tagged value
// carrying just enough information to apply itself to a Metadata snapshot.
// The replicated store (contracts.Store) applies a Closure under an
// exclusive per-key lock and replicates the result; this package never
// talks to the store directly; it only describes the transition.
//
// Closures are tagged-variant values (Kind + payload fields) rather than
// raw Go func(Metadata) Metadata values. Only Kind is exported: the payload
// fields are unexported, and this package defines no wire encoding for a
// Closure.
package transform

import "github.com/ics-distsys/mrtracker/job"

// Kind identifies which transform a Closure represents.
type Kind string

const (
	KindUpdatePhase   Kind = "UPDATE_PHASE"
	KindRemoveMappers Kind = "REMOVE_MAPPERS"
	KindRemoveReducer Kind = "REMOVE_REDUCER"
	KindCancelJob     Kind = "CANCEL_JOB"
)

// Closure is a pure, total function from one Metadata snapshot to the next.
// Apply never panics and never returns an error: every constructor below is
// total over its inputs.
type Closure struct {
	Kind Kind

	splits   []job.InputSplit
	reducer  int
	reducers []int
	cause    *job.FailCause
	newPhase job.Phase
}

// Apply executes the closure against the current snapshot and returns the
// next one. The input snapshot is never mutated.
func (c Closure) Apply(meta job.Metadata) job.Metadata {
	switch c.Kind {
	case KindUpdatePhase:
		meta.Phase = c.newPhase
		return meta

	case KindRemoveMappers:
		meta.Pending.Splits = meta.Pending.Splits.Without(c.splits...)

		if c.cause != nil {
			meta = withFailure(meta, c.cause)
			return meta
		}

		if meta.Pending.Splits.Len() == 0 && meta.Phase != job.PhaseCancelling {
			meta.Phase = job.PhaseReduce
		}

		return meta

	case KindRemoveReducer:
		meta.Pending.Reducers = meta.Pending.Reducers.Without(c.reducer)

		if c.cause != nil {
			meta = withFailure(meta, c.cause)
		}

		return meta

	case KindCancelJob:
		meta.Pending.Splits = meta.Pending.Splits.Without(c.splits...)
		meta.Pending.Reducers = meta.Pending.Reducers.Without(c.reducers...)

		if c.cause != nil && meta.FailCause == nil {
			meta.FailCause = c.cause
		}

		meta.Phase = job.PhaseCancelling

		if meta.Pending.Empty() {
			meta.Phase = job.PhaseComplete
		}

		return meta

	default:
		// A Closure is only ever constructed by this package's
		// constructors; an unrecognised Kind means corrupted wire data,
		// not a programming error we can repair. Treat as a no-op rather
		// than crash the dispatcher goroutine.
		return meta
	}
}

func withFailure(meta job.Metadata, cause *job.FailCause) job.Metadata {
	if meta.FailCause == nil {
		meta.FailCause = cause
	}
	meta.Phase = job.PhaseCancelling
	return meta
}

// UpdatePhase sets phase unconditionally. Used only for the COMMIT/ABORT
// completion path (Phase -> COMPLETE) where no pending-set bookkeeping is
// needed.
func UpdatePhase(newPhase job.Phase) Closure {
	return Closure{Kind: KindUpdatePhase, newPhase: newPhase}
}

// RemoveMappers removes splits from pendingSplits. If err is non-nil the
// job is doomed: failCause is set and phase becomes CANCELLING. Otherwise,
// if pendingSplits becomes empty and the phase is not already CANCELLING,
// phase advances to REDUCE.
func RemoveMappers(splits []job.InputSplit, err *job.FailCause) Closure {
	return Closure{Kind: KindRemoveMappers, splits: splits, cause: err}
}

// RemoveReducer removes a single reducer index from pendingReducers. If err
// is non-nil the job is doomed the same way RemoveMappers dooms it.
// Applying RemoveReducer to an index already absent from pendingReducers is
// a no-op on the set, which is what makes it idempotent.
func RemoveReducer(idx int, err *job.FailCause) Closure {
	return Closure{Kind: KindRemoveReducer, reducer: idx, cause: err}
}

// CancelJob strips the given splits and reducers from their pending sets
// and forces phase to CANCELLING (or straight to COMPLETE if both pending
// sets are now empty). Used by the node-loss path and by nodes reconciling
// work they never got to schedule locally before a cancellation.
func CancelJob(splits []job.InputSplit, reducers []int, err *job.FailCause) Closure {
	return Closure{Kind: KindCancelJob, splits: splits, reducers: reducers, cause: err}
}
