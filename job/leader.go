package job

import "sort"

// ElectLeader picks the deterministic update leader for a job: the
// lowest-ordered node, by simple string order, among the nodes that are
// both topologically eligible (the plan's node set, plus the submitting
// node) and currently live. Ties are impossible because node ids are
// unique; ElectLeader panics never, it simply returns ok=false if no
// eligible node is live.
func ElectLeader(plan Plan, submitter NodeId, liveNodes map[NodeId]struct{}) (NodeId, bool) {
	eligible := make(map[NodeId]struct{})
	for _, n := range plan.Nodes() {
		eligible[n] = struct{}{}
	}
	eligible[submitter] = struct{}{}

	var candidates []NodeId
	for n := range eligible {
		if _, live := liveNodes[n]; live {
			candidates = append(candidates, n)
		}
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	return candidates[0], true
}

// IsLeader is a convenience wrapper used by the lifecycle controller at
// every decision point that must act at most once cluster-wide.
func IsLeader(plan Plan, submitter, self NodeId, liveNodes map[NodeId]struct{}) bool {
	leader, ok := ElectLeader(plan, submitter, liveNodes)
	return ok && leader == self
}
