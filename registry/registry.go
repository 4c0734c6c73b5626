// Package registry implements component A from spec.md: the live-node
// registry. It holds the current set of reachable endpoints, serves
// round-robin selection, and builds the two QueryPlan flavors routing and
// affinity consume.
//
// Grounded on the round-robin Pool in the roblox-proxy-clustering upstream
// package (atomic cursor, Next()/Len()) and on the "hold the current set,
// replace it wholesale" shape of torua's shard registry, generalized to
// spec.md's atomic-replace and seed-fallback requirements.
package registry

import (
	"sync"
	"sync/atomic"

	"ddbrouter/internal/telemetry"
)

// LiveNodes is the mutable state backing component A. The zero value is
// not usable; construct with New.
type LiveNodes struct {
	nodes   atomic.Pointer[[]Endpoint]
	seeds   []Endpoint
	counter atomic.Uint64
	mu      sync.Mutex // serializes writers; readers never take this lock
	metrics *telemetry.Metrics
}

// New builds a LiveNodes that falls back to seeds until the first
// successful discovery populates the live list, per spec.md §3's
// "falls back to the seed nodes" invariant.
func New(seeds []Endpoint, metrics *telemetry.Metrics) *LiveNodes {
	l := &LiveNodes{
		seeds:   append([]Endpoint(nil), seeds...),
		metrics: metrics,
	}
	empty := []Endpoint{}
	l.nodes.Store(&empty)
	return l
}

// current returns the list NextEndpoint and LiveNodes should route
// against: the discovered list if discovery has ever produced one,
// otherwise the seed list.
func (l *LiveNodes) current() []Endpoint {
	live := *l.nodes.Load()
	if len(live) == 0 {
		return l.seeds
	}
	return live
}

// NextEndpoint returns the next endpoint in round-robin order. It is
// lock-free on the read path: a single atomic load of the current list and
// a single atomic increment of the counter. Returns false if there are no
// endpoints at all (no live nodes and no seeds).
func (l *LiveNodes) NextEndpoint() (Endpoint, bool) {
	current := l.current()
	if len(current) == 0 {
		return Endpoint{}, false
	}
	idx := l.counter.Add(1) - 1
	return current[idx%uint64(len(current))], true
}

// LiveNodesSnapshot returns a read-only copy of the list NextEndpoint
// currently routes against (including the seed-fallback behavior).
func (l *LiveNodes) LiveNodesSnapshot() []Endpoint {
	current := l.current()
	out := make([]Endpoint, len(current))
	copy(out, current)
	return out
}

// Replace atomically swaps in newList. It is a no-op if newList contains
// the same endpoints as the current discovered list (order-independent),
// per spec.md §3. Only the discovery loop should call this.
func (l *LiveNodes) Replace(newList []Endpoint) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := *l.nodes.Load()
	if sameSet(existing, newList) {
		return
	}
	snapshot := make([]Endpoint, len(newList))
	copy(snapshot, newList)
	l.nodes.Store(&snapshot)
	if l.metrics != nil {
		l.metrics.SetRegistrySize(len(l.current()))
	}
}

// NewQueryPlan returns a lazy, non-repeating round-robin plan over the
// registry's current list (the "basic plan" of spec.md §3).
func (l *LiveNodes) NewQueryPlan() QueryPlan {
	return &basicPlan{registry: l, seen: make(map[Endpoint]bool)}
}

// NewSeededQueryPlan returns a deterministic, pseudo-random permutation of
// the registry's current list, derived solely from seed (the "seeded
// plan" of spec.md §3 / §4.4.3-4.4.4). The node list is snapshotted at
// construction and never revisited.
func (l *LiveNodes) NewSeededQueryPlan(seed int64) QueryPlan {
	return newSeededPlan(seed, l.LiveNodesSnapshot())
}
