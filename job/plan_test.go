package job

import "testing"

func TestPlan_SplitsAndReducersFor(t *testing.T) {
	sa, sb := strSplit("a"), strSplit("b")

	plan := NewPlan(
		map[NodeId][]InputSplit{
			"node1": {sa, sb},
		},
		map[NodeId][]int{
			"node1": {0, 1},
		},
	)

	if got := plan.SplitsFor("node1"); len(got) != 2 {
		t.Fatalf("got %d splits, want 2", len(got))
	}
	if got := plan.ReducersFor("node1"); len(got) != 2 {
		t.Fatalf("got %d reducers, want 2", len(got))
	}
	if got := plan.SplitsFor("missing"); got != nil {
		t.Fatalf("expected nil for unknown node, got %v", got)
	}
}

func TestPlan_NodeForSplitAndReducer(t *testing.T) {
	sa := strSplit("a")

	plan := NewPlan(
		map[NodeId][]InputSplit{"node1": {sa}},
		map[NodeId][]int{"node1": {3}},
	)

	node, ok := plan.NodeForSplit(sa)
	if !ok || node != "node1" {
		t.Fatalf("got (%q, %v), want (node1, true)", node, ok)
	}

	node, ok = plan.NodeForReducer(3)
	if !ok || node != "node1" {
		t.Fatalf("got (%q, %v), want (node1, true)", node, ok)
	}

	if _, ok := plan.NodeForReducer(99); ok {
		t.Fatalf("expected no node for unknown reducer index")
	}
}

func TestPlan_TaskNumbersAreStableWithinAPlan(t *testing.T) {
	sa := strSplit("a")

	plan := NewPlan(
		map[NodeId][]InputSplit{"node1": {sa}},
		nil,
	)

	n1 := plan.TaskNumberForSplit(sa)
	n2 := plan.TaskNumberForSplit(sa)
	if n1 != n2 {
		t.Fatalf("task number for the same split changed: %d vs %d", n1, n2)
	}

	nodeNum1 := plan.TaskNumberForNode("node1")
	nodeNum2 := plan.TaskNumberForNode("node1")
	if nodeNum1 != nodeNum2 {
		t.Fatalf("task number for the same node changed: %d vs %d", nodeNum1, nodeNum2)
	}
}

func TestPlan_AllSplitsAndNodes(t *testing.T) {
	sa, sb := strSplit("a"), strSplit("b")

	plan := NewPlan(
		map[NodeId][]InputSplit{"node1": {sa}, "node2": {sb}},
		map[NodeId][]int{"node2": {0}},
	)

	if got := len(plan.AllSplits()); got != 2 {
		t.Fatalf("got %d splits, want 2", got)
	}
	if got := len(plan.AllReducers()); got != 1 {
		t.Fatalf("got %d reducers, want 1", got)
	}

	nodes := plan.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2: %v", len(nodes), nodes)
	}
}
