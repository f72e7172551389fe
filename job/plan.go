package job

// Plan is the immutable placement produced by the external planner
// contract: which node maps which splits, and which node reduces which
// indices. It never changes for the life of a job.
type Plan struct {
	mappers  map[NodeId][]InputSplit
	reducers map[NodeId][]int
	// splitTaskNumber and nodeTaskNumber give the deterministic task
	// numbering used for MAP/COMBINE task labels: the plan-assigned index
	// of a split or node.
	splitTaskNumber map[string]int
	nodeTaskNumber  map[NodeId]int
}

// NewPlan builds a Plan from a node->splits and node->reducer-indices
// assignment. Task numbers are assigned once, here, in Go's map iteration
// order over mappers, which is unspecified: two NewPlan calls over the same
// maps may number splits and nodes differently. A given Plan's numbers
// never change, since the plan is built once and never mutated.
func NewPlan(mappers map[NodeId][]InputSplit, reducers map[NodeId][]int) Plan {
	splitTaskNumber := make(map[string]int)
	nodeTaskNumber := make(map[NodeId]int)

	n := 0
	for node, splits := range mappers {
		nodeTaskNumber[node] = n
		n++
		for _, s := range splits {
			splitTaskNumber[s.ID()] = len(splitTaskNumber)
		}
	}

	return Plan{
		mappers:         mappers,
		reducers:        reducers,
		splitTaskNumber: splitTaskNumber,
		nodeTaskNumber:  nodeTaskNumber,
	}
}

// SplitsFor returns the splits this node must map.
func (p Plan) SplitsFor(node NodeId) []InputSplit {
	return p.mappers[node]
}

// ReducersFor returns the reducer indices this node must reduce.
func (p Plan) ReducersFor(node NodeId) []int {
	return p.reducers[node]
}

// AllSplits returns every split in the plan, across all nodes.
func (p Plan) AllSplits() []InputSplit {
	var out []InputSplit
	for _, splits := range p.mappers {
		out = append(out, splits...)
	}
	return out
}

// AllReducers returns every reducer index in the plan, across all nodes.
func (p Plan) AllReducers() []int {
	var out []int
	for _, idxs := range p.reducers {
		out = append(out, idxs...)
	}
	return out
}

// Nodes returns the set of nodes that host any mapper or reducer work for
// this job, used both for the update-leader election and for the node-loss
// scan.
func (p Plan) Nodes() []NodeId {
	seen := make(map[NodeId]struct{})
	for n := range p.mappers {
		seen[n] = struct{}{}
	}
	for n := range p.reducers {
		seen[n] = struct{}{}
	}

	out := make([]NodeId, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// NodeForSplit returns the node assigned to map the given split, and
// whether such a node exists in the plan.
func (p Plan) NodeForSplit(split InputSplit) (NodeId, bool) {
	for node, splits := range p.mappers {
		for _, s := range splits {
			if s.ID() == split.ID() {
				return node, true
			}
		}
	}
	return "", false
}

// NodeForReducer returns the node assigned to reduce the given index, and
// whether such a node exists in the plan.
func (p Plan) NodeForReducer(idx int) (NodeId, bool) {
	for node, idxs := range p.reducers {
		for _, i := range idxs {
			if i == idx {
				return node, true
			}
		}
	}
	return "", false
}

// TaskNumberForSplit is the deterministic MAP task label for a split.
func (p Plan) TaskNumberForSplit(split InputSplit) int {
	return p.splitTaskNumber[split.ID()]
}

// TaskNumberForNode is the deterministic COMBINE task label for a node.
func (p Plan) TaskNumberForNode(node NodeId) int {
	return p.nodeTaskNumber[node]
}
