package affinity

import (
	"ddbrouter/internal/logging"
	"ddbrouter/internal/telemetry"
	"ddbrouter/registry"

	"go.uber.org/zap"
)

// Destinations is the minimal surface the engine needs from component A. A
// *registry.LiveNodes satisfies it directly.
type Destinations interface {
	NewQueryPlan() registry.QueryPlan
	NewSeededQueryPlan(seed int64) registry.QueryPlan
}

// Engine is component D: it decides whether a request qualifies for
// key-affinity routing and, if so, resolves the endpoint its partition key
// hashes to. It holds no node state of its own; it only orchestrates
// qualification, extraction, hashing, and the registry's seeded plan.
type Engine struct {
	mode    Mode
	keys    *TableKeys
	nodes   Destinations
	logger  *logging.Logger
	metrics *telemetry.Metrics
}

// NewEngine builds an Engine. keys may be nil when mode is None.
func NewEngine(mode Mode, keys *TableKeys, nodes Destinations, logger *logging.Logger, metrics *telemetry.Metrics) *Engine {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Engine{mode: mode, keys: keys, nodes: nodes, logger: logger, metrics: metrics}
}

// Resolve returns the QueryPlan the routing interceptor should draw a
// destination from for r: a seeded, key-derived plan when r qualifies and
// its partition key can be extracted and resolved, otherwise the basic
// round-robin plan (spec.md §4.4's fallback-to-round-robin requirement).
func (e *Engine) Resolve(r Request) registry.QueryPlan {
	if !r.Qualifies(e.mode) {
		e.observe(telemetry.StrategyRoundRobin)
		return e.nodes.NewQueryPlan()
	}

	seed, ok := e.seedFor(r)
	if !ok {
		e.observe(telemetry.StrategyRoundRobin)
		return e.nodes.NewQueryPlan()
	}

	e.observe(telemetry.StrategyAffinity)
	return e.nodes.NewSeededQueryPlan(seed)
}

// seedFor extracts r's partition key and hashes it to a seed, or reports
// false if the key name isn't known yet or the value can't be canonicalized.
func (e *Engine) seedFor(r Request) (int64, bool) {
	pkName, ok := e.keys.Lookup(r.TableName)
	if !ok {
		return 0, false
	}

	attr, ok := r.PartitionKeyAttribute(pkName)
	if !ok {
		e.logger.Debug("partition key attribute missing from request",
			zap.String("table", r.TableName), zap.String("attribute", pkName))
		return 0, false
	}

	raw, err := CanonicalBytes(attr)
	if err != nil {
		e.logger.Debug("partition key value not canonicalizable",
			zap.String("table", r.TableName), zap.Error(err))
		return 0, false
	}

	return int64(Hash64(raw)), true
}

func (e *Engine) observe(strategy string) {
	if e.metrics != nil {
		e.metrics.ObserveRoutingDecision(strategy)
	}
}
