// Package telemetry collects the Prometheus metrics and OpenTelemetry spans
// ddbrouter's components emit. It deliberately exposes one concrete
// implementation rather than the teacher's pluggable MetricsCollector
// interface: a library embedded in exactly one process does not need to
// support swapping backends at runtime the way a multi-tenant service did.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared across ddbrouter's
// components. A nil *Metrics is safe to use: every method degrades to a
// no-op, so callers that do not want metrics can simply leave it unset.
type Metrics struct {
	registrySize       prometheus.Gauge
	discoveryPolls     *prometheus.CounterVec
	routingDecisions   *prometheus.CounterVec
	affinityCacheState *prometheus.GaugeVec
}

// NewMetrics registers ddbrouter's collectors against reg and returns a
// Metrics ready for use. Pass prometheus.NewRegistry() for an isolated
// registry, or prometheus.DefaultRegisterer to join the process default.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ddbrouter",
			Subsystem: "registry",
			Name:      "live_nodes",
			Help:      "Number of endpoints currently considered live.",
		}),
		discoveryPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddbrouter",
			Subsystem: "discovery",
			Name:      "polls_total",
			Help:      "Discovery polls, labeled by outcome.",
		}, []string{"outcome"}),
		routingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddbrouter",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Routing decisions, labeled by strategy.",
		}, []string{"strategy"}),
		affinityCacheState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ddbrouter",
			Subsystem: "affinity",
			Name:      "table_key_cache_entries",
			Help:      "Partition-key cache entries, labeled by discovery status.",
		}, []string{"status"}),
	}

	collectors := []prometheus.Collector{
		m.registrySize, m.discoveryPolls, m.routingDecisions, m.affinityCacheState,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetRegistrySize records the current live-node count.
func (m *Metrics) SetRegistrySize(n int) {
	if m == nil {
		return
	}
	m.registrySize.Set(float64(n))
}

// DiscoveryOutcome values for ObserveDiscoveryPoll.
const (
	DiscoverySuccess = "success"
	DiscoveryEmpty   = "empty"
	DiscoveryFailure = "failure"
)

// ObserveDiscoveryPoll records the outcome of one discovery poll.
func (m *Metrics) ObserveDiscoveryPoll(outcome string) {
	if m == nil {
		return
	}
	m.discoveryPolls.WithLabelValues(outcome).Inc()
}

// Routing strategy labels for ObserveRoutingDecision.
const (
	StrategyRoundRobin = "round_robin"
	StrategyAffinity   = "affinity"
)

// ObserveRoutingDecision records which strategy picked the destination for
// one request.
func (m *Metrics) ObserveRoutingDecision(strategy string) {
	if m == nil {
		return
	}
	m.routingDecisions.WithLabelValues(strategy).Inc()
}

// SetAffinityCacheState publishes the current size of the table-key cache
// broken down by discovery status (none/inflight/done).
func (m *Metrics) SetAffinityCacheState(status string, count int) {
	if m == nil {
		return
	}
	m.affinityCacheState.WithLabelValues(status).Set(float64(count))
}
