package tracker

import (
	"github.com/pkg/errors"

	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/errs"
	"github.com/ics-distsys/mrtracker/job"
)

// Submit builds the job's plan, writes its initial MAP-phase metadata to
// the store, and registers a completion future. It fails immediately,
// without touching the store, if the busy-gate is closed. If the planner
// fails, the job never reaches the store: Submit returns the wrapped
// planner error together with a future already resolved with that error.
func (t *Tracker) Submit(info job.Info) (*Future, error) {
	hold, ok := t.gate.TryRead()
	if !ok {
		return nil, errs.ErrShuttingDown
	}
	defer hold.Release()

	id := t.nextJobId()

	nodes := t.knownNodes()

	plan, err := t.planner.Plan(info, nodes)
	if err != nil {
		perr := errs.Planner(err)
		return completedFuture(id, perr), perr
	}

	externalExecution, err := t.cfg.EffectiveExternalExecution(info)
	if err != nil {
		return nil, errors.Wrap(err, "resolve external_execution")
	}

	future := newFuture(id)
	if _, inserted := t.futures.putIfAbsent(id, future); !inserted {
		return nil, errs.ErrDuplicateSubmission
	}

	meta := job.NewMetadata(id, info, plan, t.self, externalExecution)
	t.store.Put(id, meta)

	t.log.WithField("job", id).Info("submitted job")

	return future, nil
}

// Status returns the completion future for id and its JobInfo. If the job
// is already COMPLETE it returns an already-resolved future. It re-reads
// metadata after registering a future to close the race where the job
// completed between the initial read and the registration; if metadata is
// gone on that re-read, the job never existed (or was already evicted),
// which resolves as ErrJobNotFound rather than a nil dereference.
func (t *Tracker) Status(id job.Id) (*Future, job.Info, error) {
	hold, ok := t.gate.TryRead()
	if !ok {
		return nil, job.Info{}, errs.ErrShuttingDown
	}
	defer hold.Release()

	meta, ok := t.store.Get(id)
	if !ok {
		return nil, job.Info{}, errs.ErrJobNotFound
	}

	if meta.Phase == job.PhaseComplete {
		return completedFuture(id, errs.FromFailCause(meta.FailCause)), meta.Info, nil
	}

	future := newFuture(id)
	future, _ = t.futures.putIfAbsent(id, future)

	meta, stillThere := t.store.Get(id)
	if !stillThere {
		t.futures.remove(id)
		future.complete(errs.ErrJobNotFound)
		return future, job.Info{}, errs.ErrJobNotFound
	}

	if meta.Phase == job.PhaseComplete {
		t.futures.remove(id)
		future.complete(errs.FromFailCause(meta.FailCause))
	}

	return future, meta.Info, nil
}

// Plan returns the placement plan for id, or ok=false if the job is
// unknown.
func (t *Tracker) Plan(id job.Id) (job.Plan, bool) {
	meta, ok := t.store.Get(id)
	if !ok {
		return job.Plan{}, false
	}
	return meta.Plan, true
}

// Job materialises a runnable handle for id via the job factory, or
// returns ErrJobNotFound if the job is unknown.
func (t *Tracker) Job(id job.Id) (contracts.Job, error) {
	meta, ok := t.store.Get(id)
	if !ok {
		return nil, errs.ErrJobNotFound
	}
	return t.factory.Build(id, meta.Info, meta.Plan)
}

// knownNodes derives the node set eligible to host a newly-submitted job
// from the controller's current live-node view.
func (t *Tracker) knownNodes() []job.NodeId {
	nodes := make([]job.NodeId, 0)
	for n := range t.controller.LiveNodesSnapshot() {
		nodes = append(nodes, n)
	}
	return nodes
}

// Shutdown acquires the busy-gate's write hold, stops the dispatcher, and
// fails every outstanding completion future with ErrShuttingDown. No
// further store writes are made by this node afterwards.
func (t *Tracker) Shutdown() {
	t.gate.Shutdown()
	t.dispatcher.Stop()

	for _, f := range t.futures.drain() {
		f.complete(errs.ErrShuttingDown)
	}
}
