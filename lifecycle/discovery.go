package lifecycle

import (
	"github.com/ics-distsys/mrtracker/contracts"
	"github.com/ics-distsys/mrtracker/job"
	"github.com/ics-distsys/mrtracker/transform"
)

// HandleDiscoveryEvent reacts to a NODE_LEFT/NODE_FAILED event. Only the
// update leader scans all replicas; every other node simply updates its
// live-node view so its own leader computation stays current.
func (c *Controller) HandleDiscoveryEvent(ev contracts.DiscoveryEvent) {
	c.SetLiveNodes(ev.LiveNodes)

	for _, meta := range c.Store.Values() {
		if meta.Phase != job.PhaseMap && meta.Phase != job.PhaseReduce {
			continue
		}

		if !job.IsLeader(meta.Plan, meta.Submitter, c.Self, ev.LiveNodes) {
			continue
		}

		var lostSplits []job.InputSplit
		for _, split := range meta.Pending.Splits.Items() {
			node, ok := meta.Plan.NodeForSplit(split)
			if !ok {
				continue
			}
			if _, live := ev.LiveNodes[node]; !live {
				lostSplits = append(lostSplits, split)
			}
		}

		var lostReducers []int
		for _, idx := range meta.Pending.Reducers.Items() {
			node, ok := meta.Plan.NodeForReducer(idx)
			if !ok {
				continue
			}
			if _, live := ev.LiveNodes[node]; !live {
				lostReducers = append(lostReducers, idx)
			}
		}

		if len(lostSplits) == 0 && len(lostReducers) == 0 {
			continue
		}

		c.Log.WithField("job", meta.JobId).WithField("departed", ev.Departed).
			Warn("cancelling job after node loss")

		cause := &job.FailCause{Kind: job.FailKindNodeLoss, Message: "one or more nodes failed"}
		c.Store.TransformAsync(meta.JobId, transform.CancelJob(lostSplits, lostReducers, cause))
	}
}
