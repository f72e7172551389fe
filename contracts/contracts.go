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

// Package contracts defines the external collaborators the tracker core
// depends on but never implements: the replicated store, the task
// executor, the shuffle subsystem, discovery, the planner and the job
// factory. Every core package depends only on these interfaces, never on a
// concrete implementation.
package contracts

import (
	"context"
	"time"

	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/transform"
)

// ChangeBatch is one delivery of the store's change-notification
// subscription: every job whose metadata changed since the last delivery.
type ChangeBatch map[job.Id]job.Metadata

// Store is the replicated key-value projection restricted to
// (JobId -> JobMetadata). It is assumed to provide atomic read-modify-write
// via Closure, continuous change notifications, and replication across
// every node; none of that is implemented here.
type Store interface {
	Get(id job.Id) (job.Metadata, bool)
	Put(id job.Id, meta job.Metadata)

	// TransformAsync is fire-and-forget: the closure is eventually applied
	// and the result replicated. Callers must not assume it has taken
	// effect when the call returns.
	TransformAsync(id job.Id, c transform.Closure)

	// TransformSync applies the closure and blocks until the new value has
	// been durably accepted by this node's replica.
	TransformSync(id job.Id, c transform.Closure) job.Metadata

	// Values enumerates every job-metadata replica held locally. Available
	// because the cache is fully replicated to every node.
	Values() []job.Metadata

	// Subscribe registers a callback invoked for every committed change.
	// The callback MUST NOT block and MUST NOT call back into the store.
	Subscribe(callback func(ChangeBatch))

	// SetTTL arranges for id's entry to be evicted after d, applied
	// atomically with the next transform.
	SetTTL(id job.Id, d time.Duration)
}

// TaskKind is the kind of a dispatched task.
type TaskKind string

const (
	TaskMap     TaskKind = "MAP"
	TaskReduce  TaskKind = "REDUCE"
	TaskCombine TaskKind = "COMBINE"
	TaskCommit  TaskKind = "COMMIT"
	TaskAbort   TaskKind = "ABORT"
)

// TaskState is the lifecycle state of a dispatched task, as reported by the
// task executor.
type TaskState int

const (
	TaskRunning TaskState = iota
	TaskCompleted
	TaskFailed
	TaskCrashed
)

// Task describes a single unit of work handed to the task executor.
type Task struct {
	JobId      job.Id
	Kind       TaskKind
	Number     int
	Split      job.InputSplit // set for TaskMap
	ReducerIdx int            // set for TaskReduce
}

// TaskExecutor runs tasks and reports completion asynchronously through
// whatever callback it was constructed with (see taskcomplete.Handler).
// Two instances exist per node: internal and external, selected by
// Metadata.ExternalExecution, except COMMIT/ABORT which always use the
// internal executor.
type TaskExecutor interface {
	Run(jobId job.Id, tasks []Task)
	CancelTasks(jobId job.Id)
	// OnJobStateChanged is an informational hook used only when the job
	// requested external execution.
	OnJobStateChanged(jobId job.Id, meta job.Metadata)
}

// Shuffle exposes the async flush operation and per-node completion
// notification the lifecycle controller depends on.
type Shuffle interface {
	Flush(ctx context.Context, id job.Id) <-chan error
	JobFinished(id job.Id)
}

// DiscoveryEventKind distinguishes a graceful departure from a failure.
type DiscoveryEventKind string

const (
	NodeLeft   DiscoveryEventKind = "NODE_LEFT"
	NodeFailed DiscoveryEventKind = "NODE_FAILED"
)

// DiscoveryEvent reports a topology change.
type DiscoveryEvent struct {
	Kind      DiscoveryEventKind
	Departed  job.NodeId
	LiveNodes map[job.NodeId]struct{}
}

// Discovery delivers node join/leave events.
type Discovery interface {
	Subscribe(handler func(DiscoveryEvent))
}

// Planner produces a placement plan for a job given the current node set.
// Resolving JobInfo.InputPaths into concrete splits is input-format
// parsing, which this module does not implement; the planner contract
// owns that resolution internally.
type Planner interface {
	Plan(info job.Info, nodes []job.NodeId) (job.Plan, error)
}

// Job is the runnable handle the job factory materialises from JobInfo and
// a Plan; the tracker core never inspects it beyond passing it to the task
// executor.
type Job interface {
	JobId() job.Id
}

// Factory materialises a runnable Job from JobInfo and a Plan.
type Factory interface {
	Build(id job.Id, info job.Info, plan job.Plan) (Job, error)
}
