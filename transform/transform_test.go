package transform_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/transform"
)

type fakeSplit string

func (f fakeSplit) ID() string { return string(f) }

func freshMetadata(splits []job.InputSplit, reducers []int) job.Metadata {
	plan := job.NewPlan(
		map[job.NodeId][]job.InputSplit{"node1": splits},
		map[job.NodeId][]int{"node1": reducers},
	)
	return job.NewMetadata(job.Id{ClusterTag: "t", Seq: 1}, job.Info{Reducers: len(reducers)}, plan, "node1", false)
}

var _ = Describe("RemoveMappers", func() {
	var splitA, splitB job.InputSplit

	BeforeEach(func() {
		splitA = fakeSplit("a")
		splitB = fakeSplit("b")
	})

	It("advances to REDUCE once every split is removed and there is no failure", func() {
		meta := freshMetadata([]job.InputSplit{splitA, splitB}, []int{0})

		meta = transform.RemoveMappers([]job.InputSplit{splitA}, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseMap))
		Expect(meta.Pending.Splits.Len()).To(Equal(1))

		meta = transform.RemoveMappers([]job.InputSplit{splitB}, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseReduce))
		Expect(meta.Pending.Splits.Len()).To(Equal(0))
	})

	It("dooms the job on failure and never clears the cause afterwards", func() {
		meta := freshMetadata([]job.InputSplit{splitA}, nil)
		cause := &job.FailCause{Kind: job.FailKindTask, Message: "map failed"}

		meta = transform.RemoveMappers([]job.InputSplit{splitA}, cause).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseCancelling))
		Expect(meta.FailCause).To(Equal(cause))

		secondCause := &job.FailCause{Kind: job.FailKindShuffle, Message: "later failure"}
		meta = transform.RemoveMappers(nil, secondCause).Apply(meta)
		Expect(meta.FailCause).To(Equal(cause), "the first failure cause must stick")
	})

	It("is idempotent when removing an already-absent split", func() {
		meta := freshMetadata([]job.InputSplit{splitA}, nil)
		meta = transform.RemoveMappers([]job.InputSplit{splitA}, nil).Apply(meta)
		before := meta

		meta = transform.RemoveMappers([]job.InputSplit{splitA}, nil).Apply(meta)
		Expect(meta.Pending.Splits.Len()).To(Equal(before.Pending.Splits.Len()))
	})

	It("does not re-advance to REDUCE once CANCELLING", func() {
		meta := freshMetadata([]job.InputSplit{splitA, splitB}, nil)
		meta = transform.CancelJob(nil, nil, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseCancelling))

		meta = transform.RemoveMappers([]job.InputSplit{splitA, splitB}, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseCancelling))
	})
})

var _ = Describe("RemoveReducer", func() {
	It("dooms the job on failure, moving it to CANCELLING", func() {
		meta := freshMetadata(nil, []int{0, 1})
		cause := &job.FailCause{Kind: job.FailKindTask, Message: "reduce failed"}

		meta = transform.RemoveReducer(0, cause).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseCancelling))
		Expect(meta.Pending.Reducers.Contains(0)).To(BeFalse())
		Expect(meta.Pending.Reducers.Contains(1)).To(BeTrue())
	})

	It("leaves phase untouched on success", func() {
		meta := freshMetadata(nil, []int{0, 1})
		meta.Phase = job.PhaseReduce

		meta = transform.RemoveReducer(0, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseReduce))
		Expect(meta.Pending.Reducers.Len()).To(Equal(1))
	})
})

var _ = Describe("CancelJob", func() {
	It("moves straight to COMPLETE when both pending sets are already empty", func() {
		meta := freshMetadata(nil, nil)

		meta = transform.CancelJob(nil, nil, &job.FailCause{Kind: job.FailKindNodeLoss, Message: "gone"}).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseComplete))
		Expect(meta.FailCause).NotTo(BeNil())
	})

	It("otherwise moves to CANCELLING and strips the given work", func() {
		splitA := fakeSplit("a")
		meta := freshMetadata([]job.InputSplit{splitA}, []int{0})

		meta = transform.CancelJob([]job.InputSplit{splitA}, nil, nil).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseCancelling))
		Expect(meta.Pending.Splits.Len()).To(Equal(0))
		Expect(meta.Pending.Reducers.Len()).To(Equal(1))
	})
})

var _ = Describe("UpdatePhase", func() {
	It("sets the phase unconditionally", func() {
		meta := freshMetadata(nil, nil)
		meta = transform.UpdatePhase(job.PhaseComplete).Apply(meta)
		Expect(meta.Phase).To(Equal(job.PhaseComplete))
	})
})
