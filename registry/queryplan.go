package registry

// QueryPlan is a lazy, finite, single-pass, non-repeating sequence of
// endpoints, per spec.md §3. Neither implementation is restartable.
type QueryPlan interface {
	// Next returns the next endpoint in the plan, or false if the plan is
	// exhausted.
	Next() (Endpoint, bool)
}

// basicPlan is the round-robin flavor: each call to Next reads the
// registry's *current* node list, so nodes that appear mid-iteration may
// still be returned, but no endpoint is ever returned twice by the same
// plan.
type basicPlan struct {
	registry *LiveNodes
	seen     map[Endpoint]bool
}

func (p *basicPlan) Next() (Endpoint, bool) {
	for {
		current := p.registry.LiveNodesSnapshot()
		if len(current) == 0 || len(p.seen) >= len(current) {
			return Endpoint{}, false
		}
		ep, ok := p.registry.NextEndpoint()
		if !ok {
			return Endpoint{}, false
		}
		if !p.seen[ep] {
			p.seen[ep] = true
			return ep, true
		}
		// Already seen: the round-robin cursor landed on an endpoint
		// this plan already returned. Loop to draw the next cursor
		// value; the len(seen) >= len(current) check above guarantees
		// this terminates.
	}
}

// seededPlan is the key-affinity flavor: a full permutation of a snapshot
// of the node list, computed once at construction from seed, then drained
// in order.
type seededPlan struct {
	order []Endpoint
	next  int
}

func newSeededPlan(seed int64, nodes []Endpoint) *seededPlan {
	return &seededPlan{order: permute(seed, nodes)}
}

func (p *seededPlan) Next() (Endpoint, bool) {
	if p.next >= len(p.order) {
		return Endpoint{}, false
	}
	ep := p.order[p.next]
	p.next++
	return ep, true
}
