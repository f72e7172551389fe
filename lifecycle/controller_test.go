package lifecycle_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/lifecycle"
	"github.com/ics-distsys/mrtracker/localstate"
	"github.com/ics-distsys/mrtracker/storetest"
)

type fakeSplit string

func (f fakeSplit) ID() string { return string(f) }

func jobID(seq uint64) job.Id { return job.Id{ClusterTag: "t", Seq: seq} }

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeExecutor struct {
	mu           sync.Mutex
	ran          []contracts.Task
	canceled     int
	stateChanges []job.Metadata
}

func (f *fakeExecutor) Run(jobId job.Id, tasks []contracts.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, tasks...)
}

func (f *fakeExecutor) CancelTasks(job.Id) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled++
}

func (f *fakeExecutor) OnJobStateChanged(id job.Id, meta job.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateChanges = append(f.stateChanges, meta)
}

func (f *fakeExecutor) runTasks() []contracts.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contracts.Task(nil), f.ran...)
}

func (f *fakeExecutor) stateChangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stateChanges)
}

func (f *fakeExecutor) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

type fakeShuffle struct {
	mu       sync.Mutex
	finished []job.Id
}

func (f *fakeShuffle) Flush(ctx context.Context, id job.Id) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	return ch
}

func (f *fakeShuffle) JobFinished(id job.Id) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, id)
}

type completion struct {
	id  job.Id
	err error
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []completion
}

func (f *fakeNotifier) Complete(id job.Id, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completion{id: id, err: err})
}

var _ = Describe("Controller.OnMetadataChanged", func() {
	var (
		store    *storetest.MemStore
		internal *fakeExecutor
		external *fakeExecutor
		shuffle  *fakeShuffle
		registry *localstate.Registry
		notifier *fakeNotifier
		ctrl     *lifecycle.Controller
	)

	BeforeEach(func() {
		store = storetest.New()
		internal = &fakeExecutor{}
		external = &fakeExecutor{}
		shuffle = &fakeShuffle{}
		registry = localstate.NewRegistry()
		notifier = &fakeNotifier{}
		ctrl = lifecycle.NewController("node1", store, internal, external, shuffle, registry, notifier,
			func(job.Id) bool { return false }, discardLog())
	})

	Context("MAP phase", func() {
		It("dispatches a MAP task for each split assigned to this node", func() {
			sa := fakeSplit("a")
			plan := job.NewPlan(map[job.NodeId][]job.InputSplit{"node1": {sa}}, nil)
			meta := job.NewMetadata(jobID(1), job.Info{}, plan, "node1", false)

			ctrl.OnMetadataChanged(meta)

			tasks := internal.runTasks()
			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Kind).To(Equal(contracts.TaskMap))
		})

		It("does not redispatch a split already scheduled on this node", func() {
			sa := fakeSplit("a")
			plan := job.NewPlan(map[job.NodeId][]job.InputSplit{"node1": {sa}}, nil)
			meta := job.NewMetadata(jobID(1), job.Info{}, plan, "node1", false)

			ctrl.OnMetadataChanged(meta)
			ctrl.OnMetadataChanged(meta)

			Expect(internal.runTasks()).To(HaveLen(1))
		})

		It("couples map and reduce dispatch for external execution onto the external executor", func() {
			sa := fakeSplit("a")
			plan := job.NewPlan(
				map[job.NodeId][]job.InputSplit{"node1": {sa}},
				map[job.NodeId][]int{"node1": {0}},
			)
			meta := job.NewMetadata(jobID(1), job.Info{Reducers: 1}, plan, "node1", true)

			ctrl.OnMetadataChanged(meta)

			Expect(internal.runTasks()).To(BeEmpty())
			Expect(external.runTasks()).To(HaveLen(2))
		})
	})

	Context("REDUCE phase", func() {
		It("submits COMMIT once this node is the leader and no reducers remain pending", func() {
			plan := job.NewPlan(nil, nil)
			meta := job.Metadata{JobId: jobID(1), Plan: plan, Phase: job.PhaseReduce, Submitter: "node1"}

			ctrl.OnMetadataChanged(meta)

			tasks := internal.runTasks()
			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Kind).To(Equal(contracts.TaskCommit))
		})

		It("dispatches this node's own reducers when some remain pending", func() {
			plan := job.NewPlan(nil, map[job.NodeId][]int{"node1": {0, 1}})
			meta := job.Metadata{
				JobId: jobID(1), Plan: plan, Phase: job.PhaseReduce, Submitter: "node1",
				Pending: job.PendingSets{Reducers: job.NewIntSet(0, 1)},
			}

			ctrl.OnMetadataChanged(meta)

			Expect(internal.runTasks()).To(HaveLen(2))
		})

		It("does not submit COMMIT when this node is not the leader", func() {
			plan := job.NewPlan(nil, nil)
			meta := job.Metadata{JobId: jobID(1), Plan: plan, Phase: job.PhaseReduce, Submitter: "other-node"}
			ctrl.SetLiveNodes(map[job.NodeId]struct{}{"node1": {}, "other-node": {}})

			ctrl.OnMetadataChanged(meta)

			Expect(internal.runTasks()).To(BeEmpty())
		})
	})

	Context("CANCELLING phase", func() {
		It("cancels local tasks exactly once and submits ABORT once pending is empty and this node leads", func() {
			plan := job.NewPlan(nil, nil)
			meta := job.Metadata{JobId: jobID(1), Plan: plan, Phase: job.PhaseCancelling, Submitter: "node1"}

			ctrl.OnMetadataChanged(meta)
			ctrl.OnMetadataChanged(meta)

			Expect(internal.cancelCount()).To(Equal(1))
			tasks := internal.runTasks()
			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Kind).To(Equal(contracts.TaskAbort))
		})

		It("reconciles splits and reducers this node never scheduled locally", func() {
			sa := fakeSplit("a")
			plan := job.NewPlan(
				map[job.NodeId][]job.InputSplit{"node1": {sa}},
				map[job.NodeId][]int{"node1": {0}},
			)
			meta := job.Metadata{
				JobId: jobID(1), Plan: plan, Phase: job.PhaseCancelling, Submitter: "node1",
				Pending: job.PendingSets{Splits: job.NewSplitSet(sa), Reducers: job.NewIntSet(0)},
			}
			store.Put(meta.JobId, meta)

			ctrl.OnMetadataChanged(meta)

			got, _ := store.Get(meta.JobId)
			Expect(got.Pending.Splits.Len()).To(Equal(0))
			Expect(got.Pending.Reducers.Len()).To(Equal(0))
		})
	})

	Context("COMPLETE phase", func() {
		It("removes local state, notifies the shuffle subsystem and resolves the completion future", func() {
			meta := job.Metadata{JobId: jobID(1), Phase: job.PhaseComplete}
			registry.GetOrCreate(meta.JobId)

			ctrl.OnMetadataChanged(meta)

			Expect(shuffle.finished).To(ContainElement(meta.JobId))
			Expect(notifier.calls).To(HaveLen(1))
			Expect(notifier.calls[0].err).To(BeNil())

			_, ok := registry.Get(meta.JobId)
			Expect(ok).To(BeFalse())
		})

		It("reports the fail cause as a non-nil error", func() {
			meta := job.Metadata{
				JobId: jobID(1), Phase: job.PhaseComplete,
				FailCause: &job.FailCause{Kind: job.FailKindTask, Message: "boom"},
			}

			ctrl.OnMetadataChanged(meta)

			Expect(notifier.calls[0].err).To(HaveOccurred())
		})
	})

	Context("SETUP phase", func() {
		It("is a no-op", func() {
			ctrl.OnMetadataChanged(job.Metadata{JobId: jobID(1), Phase: job.PhaseSetup})

			Expect(internal.runTasks()).To(BeEmpty())
			Expect(external.runTasks()).To(BeEmpty())
		})
	})

	Context("external execution notification", func() {
		It("notifies External.OnJobStateChanged on every transition of an externally-executed job", func() {
			plan := job.NewPlan(nil, nil)
			meta := job.Metadata{JobId: jobID(1), Plan: plan, Phase: job.PhaseReduce, Submitter: "node1", ExternalExecution: true}

			ctrl.OnMetadataChanged(meta)

			Expect(external.stateChangeCount()).To(Equal(1))
			Expect(internal.stateChangeCount()).To(Equal(0))
		})

		It("does not notify OnJobStateChanged for an internally-executed job", func() {
			plan := job.NewPlan(nil, nil)
			meta := job.Metadata{JobId: jobID(1), Plan: plan, Phase: job.PhaseReduce, Submitter: "node1", ExternalExecution: false}

			ctrl.OnMetadataChanged(meta)

			Expect(external.stateChangeCount()).To(Equal(0))
			Expect(internal.stateChangeCount()).To(Equal(0))
		})
	})
})

var _ = Describe("Controller.HandleDiscoveryEvent", func() {
	var (
		store    *storetest.MemStore
		internal *fakeExecutor
		external *fakeExecutor
		shuffle  *fakeShuffle
		registry *localstate.Registry
		notifier *fakeNotifier
		ctrl     *lifecycle.Controller
	)

	BeforeEach(func() {
		store = storetest.New()
		internal = &fakeExecutor{}
		external = &fakeExecutor{}
		shuffle = &fakeShuffle{}
		registry = localstate.NewRegistry()
		notifier = &fakeNotifier{}
		ctrl = lifecycle.NewController("node1", store, internal, external, shuffle, registry, notifier,
			func(job.Id) bool { return false }, discardLog())
	})

	It("cancels a job's lost work when this node is the leader and a node it depends on died", func() {
		sa := fakeSplit("a")
		plan := job.NewPlan(
			map[job.NodeId][]job.InputSplit{"node1": {sa}, "node2": {fakeSplit("b")}},
			nil,
		)
		meta := job.Metadata{
			JobId: jobID(1), Plan: plan, Phase: job.PhaseMap, Submitter: "node1",
			Pending: job.PendingSets{Splits: job.NewSplitSet(sa, fakeSplit("b"))},
		}
		store.Put(meta.JobId, meta)

		live := map[job.NodeId]struct{}{"node1": {}}
		ctrl.HandleDiscoveryEvent(contracts.DiscoveryEvent{Kind: contracts.NodeFailed, Departed: "node2", LiveNodes: live})

		got, _ := store.Get(meta.JobId)
		Expect(got.Phase).To(Equal(job.PhaseCancelling))
		Expect(got.FailCause).NotTo(BeNil())
		Expect(got.FailCause.Kind).To(Equal(job.FailKindNodeLoss))
	})

	It("does nothing when this node is not the leader for the job", func() {
		plan := job.NewPlan(map[job.NodeId][]job.InputSplit{"node2": {fakeSplit("b")}}, nil)
		meta := job.Metadata{
			JobId: jobID(1), Plan: plan, Phase: job.PhaseMap, Submitter: "node2",
			Pending: job.PendingSets{Splits: job.NewSplitSet(fakeSplit("b"))},
		}
		store.Put(meta.JobId, meta)

		live := map[job.NodeId]struct{}{"node1": {}}
		ctrl.HandleDiscoveryEvent(contracts.DiscoveryEvent{Kind: contracts.NodeFailed, Departed: "node2", LiveNodes: live})

		got, _ := store.Get(meta.JobId)
		Expect(got.Phase).To(Equal(job.PhaseMap))
	})

	It("ignores jobs already in COMPLETE or CANCELLING", func() {
		meta := job.Metadata{JobId: jobID(1), Phase: job.PhaseComplete, Submitter: "node1"}
		store.Put(meta.JobId, meta)

		live := map[job.NodeId]struct{}{"node1": {}}
		ctrl.HandleDiscoveryEvent(contracts.DiscoveryEvent{Kind: contracts.NodeLeft, Departed: "node2", LiveNodes: live})

		got, _ := store.Get(meta.JobId)
		Expect(got.Phase).To(Equal(job.PhaseComplete))
	})
})
