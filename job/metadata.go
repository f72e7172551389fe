package job

// FailKind classifies why a job was doomed.
type FailKind string

const (
	FailKindTask     FailKind = "TASK_FAILURE"
	FailKindNodeLoss FailKind = "NODE_LOSS"
	FailKindShuffle  FailKind = "SHUFFLE_FLUSH"
	FailKindPlanner  FailKind = "PLANNER"
	FailKindStore    FailKind = "STORE"
)

// FailCause is the terminal-failure descriptor carried in JobMetadata. Once
// set it is never cleared and never overwritten: a job fails for exactly
// one reason.
type FailCause struct {
	Kind    FailKind
	Message string
}

func (fc *FailCause) Error() string {
	if fc == nil {
		return ""
	}
	return string(fc.Kind) + ": " + fc.Message
}

// Metadata is the replicated entity: a point-in-time, value-typed snapshot
// of a job's state. It is never mutated in place; transform closures
// (package transform) take one Metadata value and return another.
type Metadata struct {
	JobId     Id
	Info      Info
	Plan      Plan
	Phase     Phase
	Pending   PendingSets
	Submitter NodeId

	ExternalExecution bool

	// FailCause is non-nil once any transform has observed a failure. It
	// is monotonic: no transform ever clears it.
	FailCause *FailCause
}

// PendingSets groups the two pending collections so transforms can pass
// them around and compare "both pending sets empty" as one concept.
type PendingSets struct {
	Splits   SplitSet
	Reducers IntSet
}

func (p PendingSets) Empty() bool {
	return p.Splits.Len() == 0 && p.Reducers.Len() == 0
}

// NewMetadata builds the initial MAP-phase snapshot submit() writes to the
// store: every split and reducer index starts pending.
func NewMetadata(id Id, info Info, plan Plan, submitter NodeId, externalExecution bool) Metadata {
	return Metadata{
		JobId:     id,
		Info:      info,
		Plan:      plan,
		Phase:     PhaseMap,
		Submitter: submitter,
		Pending: PendingSets{
			Splits:   NewSplitSet(plan.AllSplits()...),
			Reducers: reducerIndexSet(info.Reducers),
		},
		ExternalExecution: externalExecution,
	}
}

func reducerIndexSet(n int) IntSet {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	return NewIntSet(idxs...)
}
