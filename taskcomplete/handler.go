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

// Package taskcomplete implements the callback the local task executor
// invokes when a task finishes. For combine-capable jobs it defers the
// metadata update for a node's mappers until the shuffle flush for that
// node completes, since combine stands in for all of a node's mappers at
// once.
package taskcomplete

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/localstate"
	"github.com/ics-distsys/mrtracker/transform"
)

// Handler wires the task executor's completion callback to transform
// closures and the shuffle subsystem.
type Handler struct {
	Self job.NodeId

	Store    contracts.Store
	Internal contracts.TaskExecutor
	Shuffle  contracts.Shuffle
	Registry *localstate.Registry

	HasCombiner func(job.Id) bool

	// TTLFor resolves the finished-job TTL to apply when COMMIT/ABORT
	// completes, combining JobInfo.Config with the cluster default
	// (config.ClusterConfig.EffectiveTTL).
	TTLFor func(job.Id) time.Duration

	Log *logrus.Entry
}

// OnTaskFinished is called by the task executor when a local task
// transitions out of RUNNING. Calling it with TaskRunning is a programming
// error in the caller; the handler asserts against it rather than
// silently ignoring it.
func (h *Handler) OnTaskFinished(task contracts.Task, state contracts.TaskState) {
	if state == contracts.TaskRunning {
		panic("taskcomplete: OnTaskFinished called with TaskRunning")
	}

	switch task.Kind {
	case contracts.TaskMap:
		h.onMapFinished(task, state)
	case contracts.TaskReduce:
		h.onReduceFinished(task, state)
	case contracts.TaskCombine:
		h.onCombineFinished(task, state)
	case contracts.TaskCommit, contracts.TaskAbort:
		h.onTerminalFinished(task)
	}
}

func (h *Handler) onMapFinished(task contracts.Task, state contracts.TaskState) {
	jobId := task.JobId

	if state == contracts.TaskFailed || state == contracts.TaskCrashed {
		cause := &job.FailCause{Kind: job.FailKindTask, Message: "map task failed"}
		h.Store.TransformAsync(jobId, transform.RemoveMappers([]job.InputSplit{task.Split}, cause))
		return
	}

	st, ok := h.Registry.Get(jobId)
	if !ok {
		// A completion arriving after this node's local state has already
		// been removed (job reached COMPLETE) is benign: the job no
		// longer needs this node's bookkeeping.
		return
	}

	isLast := st.IncCompletedMappers()

	hasCombiner := h.HasCombiner != nil && h.HasCombiner(jobId)
	if hasCombiner {
		if meta, ok := h.Store.Get(jobId); ok && meta.ExternalExecution {
			hasCombiner = false
		}
	}

	switch {
	case hasCombiner && isLast:
		// Internal-only: external execution never schedules combine
		// locally. RemoveMappers is deliberately withheld here; the
		// combine completion stands in for every mapper on this node at
		// once.
		meta, ok := h.Store.Get(jobId)
		if !ok {
			return
		}

		h.Internal.Run(jobId, []contracts.Task{{
			JobId:  jobId,
			Kind:   contracts.TaskCombine,
			Number: meta.Plan.TaskNumberForNode(h.Self),
		}})

	case hasCombiner:
		// Not the last mapper yet; wait for the rest before combining.

	case isLast:
		h.flushThenRemove(jobId, []job.InputSplit{task.Split})

	default:
		h.Store.TransformAsync(jobId, transform.RemoveMappers([]job.InputSplit{task.Split}, nil))
	}
}

func (h *Handler) flushThenRemove(jobId job.Id, splits []job.InputSplit) {
	ctx := context.Background()
	errCh := h.Shuffle.Flush(ctx, jobId)

	go func() {
		var cause *job.FailCause
		if err := <-errCh; err != nil {
			cause = &job.FailCause{Kind: job.FailKindShuffle, Message: err.Error()}
		}
		h.Store.TransformAsync(jobId, transform.RemoveMappers(splits, cause))
	}()
}

func (h *Handler) onReduceFinished(task contracts.Task, state contracts.TaskState) {
	var cause *job.FailCause
	if state == contracts.TaskFailed || state == contracts.TaskCrashed {
		cause = &job.FailCause{Kind: job.FailKindTask, Message: "reduce task failed"}
	}

	h.Store.TransformAsync(task.JobId, transform.RemoveReducer(task.ReducerIdx, cause))
}

func (h *Handler) onCombineFinished(task contracts.Task, state contracts.TaskState) {
	jobId := task.JobId

	st, ok := h.Registry.Get(jobId)
	if !ok {
		return
	}

	splitIDs := st.CurrMappers()

	meta, ok := h.Store.Get(jobId)
	if !ok {
		return
	}

	// Resolve split objects by id against the plan's own split list, since
	// CurrMappers only stores ids (the set key), not the InputSplit value.
	splits := make([]job.InputSplit, 0, len(splitIDs))
	bySplitID := make(map[string]job.InputSplit)
	for _, s := range meta.Plan.AllSplits() {
		bySplitID[s.ID()] = s
	}
	for _, id := range splitIDs {
		if s, ok := bySplitID[id]; ok {
			splits = append(splits, s)
		}
	}

	if state == contracts.TaskFailed || state == contracts.TaskCrashed {
		cause := &job.FailCause{Kind: job.FailKindTask, Message: "combine task failed"}
		h.Store.TransformAsync(jobId, transform.RemoveMappers(splits, cause))
		return
	}

	h.flushThenRemove(jobId, splits)
}

func (h *Handler) onTerminalFinished(task contracts.Task) {
	ttl := time.Duration(0)
	if h.TTLFor != nil {
		ttl = h.TTLFor(task.JobId)
	}
	if ttl > 0 {
		h.Store.SetTTL(task.JobId, ttl)
	}

	h.Store.TransformAsync(task.JobId, transform.UpdatePhase(job.PhaseComplete))
}
