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

// Package demo wires a single-node Tracker against the in-memory
// reference store and trivial stand-ins for every external collaborator
// (planner, task executor, shuffle, discovery). It backs the CLI's
// single-process mode and is not a production deployment: every
// collaborator it provides here is left for the surrounding deployment to
// supply in a real cluster.
package demo

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ics-distsys/mrtracker/config"
	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/storetest"
	"github.com/ics-distsys/mrtracker/tracker"
)

// PathSplit is the trivial InputSplit: one split per configured input
// path. Reading the split's data is input-format parsing, which this
// module does not implement; PathSplit only carries the identity.
type PathSplit string

func (p PathSplit) ID() string { return string(p) }

// planner assigns every split and every reducer index to the sole demo
// node; it is a stand-in for the external planner contract.
type planner struct{}

func (planner) Plan(info job.Info, nodes []job.NodeId) (job.Plan, error) {
	if len(nodes) == 0 {
		nodes = []job.NodeId{"local"}
	}
	node := nodes[0]

	splits := make([]job.InputSplit, 0, len(info.InputPaths))
	for _, p := range info.InputPaths {
		splits = append(splits, PathSplit(p))
	}

	reducers := make([]int, info.Reducers)
	for i := range reducers {
		reducers[i] = i
	}

	return job.NewPlan(
		map[job.NodeId][]job.InputSplit{node: splits},
		map[job.NodeId][]int{node: reducers},
	), nil
}

// executor immediately completes every task it is handed by calling back
// into the supplied callback on a new goroutine, simulating a local task
// executor that never fails.
type executor struct {
	onFinished func(contracts.Task, contracts.TaskState)
}

func (e *executor) Run(jobId job.Id, tasks []contracts.Task) {
	for _, t := range tasks {
		t := t
		go e.onFinished(t, contracts.TaskCompleted)
	}
}

func (e *executor) CancelTasks(job.Id) {}

func (e *executor) OnJobStateChanged(job.Id, job.Metadata) {}

// shuffle always flushes successfully, returning an already-resolved
// channel; JobFinished is a no-op.
type shuffle struct{}

func (shuffle) Flush(ctx context.Context, id job.Id) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	return ch
}

func (shuffle) JobFinished(job.Id) {}

// discovery never reports any topology change in single-node demo mode.
type discovery struct{}

func (discovery) Subscribe(func(contracts.DiscoveryEvent)) {}

type runnableJob struct{ id job.Id }

func (j runnableJob) JobId() job.Id { return j.id }

type factory struct{}

func (factory) Build(id job.Id, info job.Info, plan job.Plan) (contracts.Job, error) {
	return runnableJob{id: id}, nil
}

// New builds a single-node Tracker wired entirely to the demo stand-ins
// above, plus the in-memory reference store.
func New(clusterTag string) *Tracker {
	store := storetest.New()

	cfg := config.ClusterConfig{
		NodeId:     "local",
		ClusterTag: clusterTag,
	}

	log := logrus.NewEntry(logrus.StandardLogger())

	var trk *tracker.Tracker

	exec := &executor{}
	exec.onFinished = func(t contracts.Task, s contracts.TaskState) {
		trk.OnTaskFinished(t, s)
	}

	trk = tracker.New(tracker.Deps{
		Self:      cfg.NodeId,
		Cfg:       cfg,
		Store:     store,
		Planner:   planner{},
		Factory:   factory{},
		Internal:  exec,
		External:  exec,
		Shuffle:   shuffle{},
		Discovery: discovery{},
		HasCombiner: func(job.Id) bool { return false },
		Log:       log,
	})

	return &Tracker{inner: trk, store: store}
}

// Tracker exposes the demo-wired tracker.Tracker's API to the CLI
// commands. It also keeps the underlying MemStore; no method here reads it.
type Tracker struct {
	inner *tracker.Tracker
	store *storetest.MemStore
}

func (t *Tracker) Submit(info job.Info) (*tracker.Future, error) { return t.inner.Submit(info) }

func (t *Tracker) Status(id job.Id) (*tracker.Future, job.Info, error) { return t.inner.Status(id) }

func (t *Tracker) Plan(id job.Id) (job.Plan, bool) { return t.inner.Plan(id) }

func (t *Tracker) Shutdown() { t.inner.Shutdown() }
