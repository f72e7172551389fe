package job

// Phase is the coarse-grained status of a job.
//
// The legal transitions are:
//
//	SETUP -> MAP -> (COMBINE implicit, per-node) -> REDUCE -> COMPLETE
//
// Any of SETUP, MAP or REDUCE may transition to CANCELLING; CANCELLING may
// only transition to COMPLETE. No other transitions are legal. COMBINE is
// not a distinct JobMetadata phase: it happens per-node while the job is
// still in MAP.
type Phase string

const (
	// PhaseSetup is the phase a job occupies between construction and the
	// point where pendingSplits/pendingReducers are populated. The tracker
	// never writes metadata in this phase; submit() goes straight to MAP.
	PhaseSetup Phase = "SETUP"

	// PhaseMap is active while any split has not yet been mapped (or
	// combined, on nodes with a combiner).
	PhaseMap Phase = "MAP"

	// PhaseReduce is active once every split has been accounted for and
	// reducers remain pending.
	PhaseReduce Phase = "REDUCE"

	// PhaseCancelling is active once a task failure, shuffle error or
	// node-loss event has doomed the job; it persists until every node has
	// reconciled the splits/reducers it owns.
	PhaseCancelling Phase = "CANCELLING"

	// PhaseComplete is terminal. failCause is nil on success.
	PhaseComplete Phase = "COMPLETE"
)

// Terminal reports whether no further transform may change the phase.
func (p Phase) Terminal() bool {
	return p == PhaseComplete
}
