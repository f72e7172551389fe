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

// Package tracker is the external surface of the job tracker: submit a
// job, query its status, obtain its plan or a runnable handle, and shut
// the node down cleanly. It wires together the store, the dispatcher, the
// lifecycle controller and the busy-gate.
//
// A struct wrapping a client plus options, with methods that wrap errors
// with github.com/pkg/errors and return typed results, is the template
// followed here.
package tracker

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ics-distsys/mrtracker/config"
	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/dispatcher"
	"github.com/ics-distsys/mrtracker/errs"
	"github.com/ics-distsys/mrtracker/gate"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/lifecycle"
	"github.com/ics-distsys/mrtracker/localstate"
	"github.com/ics-distsys/mrtracker/taskcomplete"
)

// Tracker is a single node's instance of the replicated job tracker. Every
// node in the cluster runs one Tracker, wired to the same Store.
type Tracker struct {
	self job.NodeId
	cfg  config.ClusterConfig

	store    contracts.Store
	planner  contracts.Planner
	factory  contracts.Factory
	internal contracts.TaskExecutor
	external contracts.TaskExecutor
	shuffle  contracts.Shuffle

	gate       *gate.Gate
	dispatcher *dispatcher.Dispatcher
	controller *lifecycle.Controller
	handler    *taskcomplete.Handler
	registry   *localstate.Registry

	futures *futureTable
	seq     uint64

	log *logrus.Entry
}

// Deps groups every external collaborator the tracker needs.
type Deps struct {
	Self job.NodeId
	Cfg  config.ClusterConfig

	Store    contracts.Store
	Planner  contracts.Planner
	Factory  contracts.Factory
	Internal contracts.TaskExecutor
	External contracts.TaskExecutor
	Shuffle  contracts.Shuffle
	Discovery contracts.Discovery

	// HasCombiner reports whether a job's user code defines a combiner.
	// The invocation model itself is not implemented here.
	HasCombiner func(job.Id) bool

	Log *logrus.Entry
}

// New builds a Tracker and starts its dispatcher goroutine. Callers must
// call Shutdown when done.
func New(d Deps) *Tracker {
	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	t := &Tracker{
		self:     d.Self,
		cfg:      d.Cfg,
		store:    d.Store,
		planner:  d.Planner,
		factory:  d.Factory,
		internal: d.Internal,
		external: d.External,
		shuffle:  d.Shuffle,
		gate:     gate.New(),
		registry: localstate.NewRegistry(),
		futures:  newFutureTable(),
		log:      log.WithField("component", "tracker"),
	}

	t.dispatcher = dispatcher.New(t.log)

	t.controller = lifecycle.NewController(
		d.Self, d.Store, d.Internal, d.External, d.Shuffle,
		t.registry, t, d.HasCombiner, t.log,
	)

	t.handler = &taskcomplete.Handler{
		Self:        d.Self,
		Store:       d.Store,
		Internal:    d.Internal,
		Shuffle:     d.Shuffle,
		Registry:    t.registry,
		HasCombiner: d.HasCombiner,
		TTLFor:      t.effectiveTTL,
		Log:         t.log,
	}

	d.Store.Subscribe(func(batch contracts.ChangeBatch) {
		t.dispatcher.Enqueue(func() { t.onChangeBatch(batch) })
	})

	if d.Discovery != nil {
		d.Discovery.Subscribe(func(ev contracts.DiscoveryEvent) {
			t.dispatcher.Enqueue(func() { t.onDiscoveryEvent(ev) })
		})
	}

	return t
}

func (t *Tracker) effectiveTTL(id job.Id) time.Duration {
	meta, ok := t.store.Get(id)
	if !ok {
		return 0
	}
	d, err := t.cfg.EffectiveTTL(meta.Info)
	if err != nil {
		return 0
	}
	return d
}

func (t *Tracker) onChangeBatch(batch contracts.ChangeBatch) {
	hold, ok := t.gate.TryRead()
	if !ok {
		return
	}
	defer hold.Release()

	for _, meta := range batch {
		t.controller.OnMetadataChanged(meta)
	}
}

func (t *Tracker) onDiscoveryEvent(ev contracts.DiscoveryEvent) {
	hold, ok := t.gate.TryRead()
	if !ok {
		return
	}
	defer hold.Release()

	t.controller.HandleDiscoveryEvent(ev)
}

// OnTaskFinished forwards a local task executor's completion callback to
// the completion handler, under the busy-gate.
func (t *Tracker) OnTaskFinished(task contracts.Task, state contracts.TaskState) {
	hold, ok := t.gate.TryRead()
	if !ok {
		return
	}
	defer hold.Release()

	t.handler.OnTaskFinished(task, state)
}

// Complete implements lifecycle.CompletionNotifier: it resolves the
// caller-facing future for a job once the controller observes COMPLETE.
func (t *Tracker) Complete(id job.Id, err error) {
	if f, ok := t.futures.get(id); ok {
		f.complete(err)
		t.futures.remove(id)
	}
}

func (t *Tracker) nextJobId() job.Id {
	seq := atomic.AddUint64(&t.seq, 1)
	return job.Id{ClusterTag: t.cfg.ClusterTag, Seq: seq}
}
