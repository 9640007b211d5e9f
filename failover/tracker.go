package failover

// leaderTracker holds the node currently believed to be the leader.
//
// Not safe for concurrent use; every method runs under the provider lock.
// Invariant: order[idx] == cur.
type leaderTracker struct {
	order []string
	idx   int
	cur   string
	// hint is applied by the next failover and then cleared.
	hint string
}

func newLeaderTracker(order []string) *leaderTracker {
	return &leaderTracker{
		order: order,
		cur:   order[0],
	}
}

func (t *leaderTracker) current() string { return t.cur }

func (t *leaderTracker) index() int { return t.idx }

func (t *leaderTracker) pendingHint() (string, bool) { return t.hint, t.hint != "" }

func (t *leaderTracker) roundRobinAdvance() {
	t.idx = (t.idx + 1) % len(t.order)
	t.cur = t.order[t.idx]
}

// recordSuggestedLeader stores nodeID as the hint when it is a known node
// other than the current one and clears the hint otherwise.
func (t *leaderTracker) recordSuggestedLeader(nodeID string) {
	if nodeID != t.cur && t.position(nodeID) >= 0 {
		t.hint = nodeID
		return
	}
	t.hint = ""
}

// applyPendingOrRoundRobin consumes the hint if there is one and round-robins
// otherwise.
func (t *leaderTracker) applyPendingOrRoundRobin() {
	if t.hint == "" {
		t.roundRobinAdvance()
		return
	}
	t.idx = t.position(t.hint)
	t.cur = t.hint
	t.hint = ""
}

// markHintConsumed pins the current node as the hint, so a racing failover
// keeps it instead of guessing the next node.
func (t *leaderTracker) markHintConsumed() {
	t.hint = t.cur
}

func (t *leaderTracker) position(nodeID string) int {
	for i, id := range t.order {
		if id == nodeID {
			return i
		}
	}
	return -1
}
