// Package scope implements the RoutingScope data model from spec.md §3: a
// tagged union describing which nodes discovery should prefer, with an
// optional fallback chain, per the "pluggable scope chain" design note in
// spec.md §9 ("model as a tagged variant ... with an optional fallback").
package scope

import "fmt"

// Scope is the closed tagged union Cluster | Dc{name} | Rack{dc, name}.
// Query is a total function over the variant, per §9.
type Scope interface {
	// Query returns the query string discovery polls with: "" for
	// Cluster, "dc=X" for a datacenter scope, "dc=X&rack=Y" for a rack
	// scope.
	Query() string
	// Fallback returns the next scope to try if this one yields no
	// matching nodes, and whether one is configured.
	Fallback() (Scope, bool)
	// String renders the scope for logging.
	String() string
	isScope()
}

type clusterScope struct{}

func (clusterScope) Query() string             { return "" }
func (clusterScope) Fallback() (Scope, bool)   { return nil, false }
func (clusterScope) String() string            { return "cluster" }
func (clusterScope) isScope()                  {}

type dcScope struct {
	dc       string
	fallback Scope
}

func (s dcScope) Query() string { return "dc=" + s.dc }
func (s dcScope) Fallback() (Scope, bool) {
	return s.fallback, s.fallback != nil
}
func (s dcScope) String() string { return fmt.Sprintf("dc(%s)", s.dc) }
func (dcScope) isScope()         {}

type rackScope struct {
	dc       string
	rack     string
	fallback Scope
}

func (s rackScope) Query() string { return "dc=" + s.dc + "&rack=" + s.rack }
func (s rackScope) Fallback() (Scope, bool) {
	return s.fallback, s.fallback != nil
}
func (s rackScope) String() string { return fmt.Sprintf("rack(%s,%s)", s.dc, s.rack) }
func (rackScope) isScope()         {}

// Cluster is the scope matching every node; it never has a fallback since
// there is nothing broader to fall back to.
func Cluster() Scope { return clusterScope{} }

// Dc matches nodes in the given datacenter, falling back to fallback (which
// may be nil) if the datacenter query returns no nodes.
func Dc(dc string, fallback Scope) Scope {
	return dcScope{dc: dc, fallback: fallback}
}

// Rack matches nodes in the given datacenter and rack, falling back to
// fallback (which may be nil) if the rack query returns no nodes.
func Rack(dc, rack string, fallback Scope) Scope {
	return rackScope{dc: dc, rack: rack, fallback: fallback}
}

// Equal reports structural equality between two scopes, per spec.md §3
// ("Equality is structural").
func Equal(a, b Scope) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Query() == b.Query() && fallbackEqual(a, b)
}

func fallbackEqual(a, b Scope) bool {
	af, aok := a.Fallback()
	bf, bok := b.Fallback()
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	return Equal(af, bf)
}

// Chain walks the fallback chain starting at s and returns every scope in
// order, terminating at (and including) the scope with no fallback. This
// is used by discovery's probe-and-fallback algorithm (spec.md §4.2).
func Chain(s Scope) []Scope {
	var chain []Scope
	for cur := s; cur != nil; {
		chain = append(chain, cur)
		next, ok := cur.Fallback()
		if !ok {
			break
		}
		cur = next
	}
	return chain
}
