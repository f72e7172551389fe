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

// Package lifecycle implements the job state machine: the entry point
// OnMetadataChanged reacts to a job's current phase, decides which
// map/reduce/combine tasks this node must launch or cancel, and issues
// transform closures to advance the replicated metadata.
//
// The shape is a Reconciler-like struct holding a store and a logger, a
// single entry point that switches on the current phase/action, and a
// tail call into a transform.Closure to record the outcome.
package lifecycle

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/localstate"
	"github.com/ics-distsys/mrtracker/transform"
)

// CompletionNotifier is implemented by the submission & status API
// (package tracker) so the controller can resolve a job's completion
// future without depending on that package directly.
type CompletionNotifier interface {
	Complete(id job.Id, err error)
}

// Controller is the per-node lifecycle state machine. One Controller
// serves every job observed on this node.
type Controller struct {
	Self job.NodeId

	Store    contracts.Store
	Internal contracts.TaskExecutor
	External contracts.TaskExecutor
	Shuffle  contracts.Shuffle

	Registry *localstate.Registry
	Notifier CompletionNotifier

	// HasCombiner reports whether a job has a combine stage. Supplied as a
	// function because combiner presence is a property of the job's
	// user-code, which this module does not implement.
	HasCombiner func(job.Id) bool

	Log *logrus.Entry

	mu        sync.Mutex
	liveNodes map[job.NodeId]struct{}
	terminal  map[job.Id]struct{} // jobs whose COMMIT/ABORT this node submitted
}

// NewController wires a Controller. liveNodes should be seeded with the
// node's own id at minimum; discovery events keep it current afterwards.
func NewController(self job.NodeId, store contracts.Store, internal, external contracts.TaskExecutor, shuffle contracts.Shuffle, registry *localstate.Registry, notifier CompletionNotifier, hasCombiner func(job.Id) bool, log *logrus.Entry) *Controller {
	return &Controller{
		Self:        self,
		Store:       store,
		Internal:    internal,
		External:    external,
		Shuffle:     shuffle,
		Registry:    registry,
		Notifier:    notifier,
		HasCombiner: hasCombiner,
		Log:         log.WithField("node", self),
		liveNodes:   map[job.NodeId]struct{}{self: {}},
	}
}

// SetLiveNodes replaces the controller's view of the currently-live node
// set, used by update-leader election. Called from the discovery handler.
func (c *Controller) SetLiveNodes(nodes map[job.NodeId]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveNodes = nodes
}

// LiveNodesSnapshot returns a copy of the controller's current view of the
// live node set, used by the submission API to pick the node set a new
// job's plan should be built against.
func (c *Controller) LiveNodesSnapshot() map[job.NodeId]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[job.NodeId]struct{}, len(c.liveNodes))
	for n := range c.liveNodes {
		out[n] = struct{}{}
	}
	return out
}

func (c *Controller) isLeader(meta job.Metadata) bool {
	return job.IsLeader(meta.Plan, meta.Submitter, c.Self, c.LiveNodesSnapshot())
}

func (c *Controller) executorFor(meta job.Metadata) contracts.TaskExecutor {
	if meta.ExternalExecution {
		return c.External
	}
	return c.Internal
}

// OnMetadataChanged is the dispatcher-serialised entry point: given the
// current replicated snapshot, decide what this node must do next. It
// never performs work owed to other nodes; termination is reached only
// once every node has cleared its slice of the pending sets.
func (c *Controller) OnMetadataChanged(meta job.Metadata) {
	if meta.ExternalExecution {
		// The external worker process owns its own task bookkeeping; it
		// only needs to observe the job's current snapshot, not be told
		// to launch/cancel individual tasks the way Internal is.
		c.External.OnJobStateChanged(meta.JobId, meta)
	}

	switch meta.Phase {
	case job.PhaseMap:
		c.onMap(meta)
	case job.PhaseReduce:
		c.onReduce(meta)
	case job.PhaseCancelling:
		c.onCancelling(meta)
	case job.PhaseComplete:
		c.onComplete(meta)
	case job.PhaseSetup:
		// submit() moves a job straight to MAP before it is ever written
		// to the store; SETUP is never observed via a change notification.
	}
}

func (c *Controller) onMap(meta job.Metadata) {
	state := c.Registry.GetOrCreate(meta.JobId)

	mySplits := meta.Plan.SplitsFor(c.Self)

	var batch []contracts.Task
	for _, split := range mySplits {
		if !state.AddMapper(split) {
			continue
		}
		batch = append(batch, contracts.Task{
			JobId:  meta.JobId,
			Kind:   contracts.TaskMap,
			Number: meta.Plan.TaskNumberForSplit(split),
			Split:  split,
		})
	}

	if len(batch) > 0 {
		state.SetExpectedMappers(len(mySplits))
	}

	if meta.ExternalExecution {
		// External execution launches map and reduce together: the
		// external worker process is started once per node per job, so
		// mapper and reducer scheduling for a node must be coupled into
		// one dispatch.
		for _, idx := range meta.Plan.ReducersFor(c.Self) {
			if !state.AddReducer(idx) {
				continue
			}
			batch = append(batch, contracts.Task{
				JobId:      meta.JobId,
				Kind:       contracts.TaskReduce,
				Number:     idx,
				ReducerIdx: idx,
			})
		}
	}

	if len(batch) > 0 {
		c.Log.WithField("job", meta.JobId).Info("dispatching MAP batch")
		c.executorFor(meta).Run(meta.JobId, batch)
	}
}

func (c *Controller) onReduce(meta job.Metadata) {
	if meta.Pending.Reducers.Len() == 0 {
		if c.isLeader(meta) {
			c.submitTerminal(meta, contracts.TaskCommit)
		}
		return
	}

	if meta.ExternalExecution {
		// Reducers for external execution were already dispatched
		// alongside the MAP batch; nothing further to schedule here.
		return
	}

	state := c.Registry.GetOrCreate(meta.JobId)

	var batch []contracts.Task
	for _, idx := range meta.Plan.ReducersFor(c.Self) {
		if !state.AddReducer(idx) {
			continue
		}
		batch = append(batch, contracts.Task{
			JobId:      meta.JobId,
			Kind:       contracts.TaskReduce,
			Number:     idx,
			ReducerIdx: idx,
		})
	}

	if len(batch) > 0 {
		c.Log.WithField("job", meta.JobId).Info("dispatching REDUCE batch")
		c.Internal.Run(meta.JobId, batch)
	}
}

func (c *Controller) onCancelling(meta job.Metadata) {
	state := c.Registry.GetOrCreate(meta.JobId)

	if state.OnCancel() {
		c.Log.WithField("job", meta.JobId).Warn("cancelling job")
		c.executorFor(meta).CancelTasks(meta.JobId)
	}

	if meta.Pending.Empty() {
		if c.isLeader(meta) {
			c.submitTerminal(meta, contracts.TaskAbort)
		}
		return
	}

	// Reconcile splits/reducers assigned to this node that were never
	// scheduled locally, so the job can still reach COMPLETE even though
	// this node will never run them.
	var unscheduledSplits []job.InputSplit
	for _, split := range meta.Plan.SplitsFor(c.Self) {
		if !state.MapperScheduled(split) {
			unscheduledSplits = append(unscheduledSplits, split)
		}
	}

	var unscheduledReducers []int
	for _, idx := range meta.Plan.ReducersFor(c.Self) {
		if !state.ReducerScheduled(idx) {
			unscheduledReducers = append(unscheduledReducers, idx)
		}
	}

	if len(unscheduledSplits) > 0 || len(unscheduledReducers) > 0 {
		c.Store.TransformAsync(meta.JobId, transform.CancelJob(unscheduledSplits, unscheduledReducers, nil))
	}
}

func (c *Controller) onComplete(meta job.Metadata) {
	c.Registry.Remove(meta.JobId)
	c.mu.Lock()
	delete(c.terminal, meta.JobId)
	c.mu.Unlock()
	c.Shuffle.JobFinished(meta.JobId)

	var err error
	if meta.FailCause != nil {
		err = errors.New(meta.FailCause.Error())
	}
	c.Notifier.Complete(meta.JobId, err)
}

// submitTerminal submits the single cluster-wide COMMIT or ABORT task.
// Callers must already hold the "I am the update leader" guarantee, so only
// one node submits; on this node, a per-job latch turns every later call
// for the same job into a no-op until the job reaches COMPLETE.
func (c *Controller) submitTerminal(meta job.Metadata, kind contracts.TaskKind) {
	c.mu.Lock()
	_, already := c.terminal[meta.JobId]
	if !already {
		if c.terminal == nil {
			c.terminal = make(map[job.Id]struct{})
		}
		c.terminal[meta.JobId] = struct{}{}
	}
	c.mu.Unlock()
	if already {
		return
	}

	c.Log.WithField("job", meta.JobId).WithField("kind", kind).Info("submitting terminal task")

	c.Internal.Run(meta.JobId, []contracts.Task{{JobId: meta.JobId, Kind: kind}})
}
