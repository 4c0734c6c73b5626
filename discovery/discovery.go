// Package discovery implements component B: the background loop that keeps
// the live-node registry current by periodically polling a live endpoint's
// "local nodes" listing.
//
// Grounded on infrastructure/config.DynamicConfigManager's ctx/cancel
// lifecycle and ticker-driven healthCheckLoop for the cancelable background
// task shape, and on internal/middleware.CircuitBreaker's gobreaker wiring,
// repurposed here from an HTTP-inbound middleware into an outbound guard
// around polls against a single node.
package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ddbrouter/internal/logging"
	"ddbrouter/internal/telemetry"
	"ddbrouter/registry"
	"ddbrouter/scope"
)

// Poller is the registry surface the loop mutates.
type Poller interface {
	LiveNodesSnapshot() []registry.Endpoint
	Replace(newList []registry.Endpoint)
}

// Config parameterizes the loop, per spec.md §6.
type Config struct {
	Seeds                 []registry.Endpoint
	Scope                 scope.Scope
	Scheme                registry.Scheme
	Port                  int
	ActiveRefreshInterval time.Duration
	IdleRefreshInterval   time.Duration
}

// Loop is component B. The zero value is not usable; construct with New.
type Loop struct {
	cfg     Config
	nodes   Poller
	client  *Client
	logger  *logging.Logger
	metrics *telemetry.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	lastActivity atomic.Int64 // unix nanos, updated by Touch

	breakersMu sync.Mutex
	breakers   map[registry.Endpoint]*gobreaker.CircuitBreaker
}

// New builds a Loop. It does not start polling until Start is called.
func New(cfg Config, nodes Poller, client *Client, logger *logging.Logger, metrics *telemetry.Metrics) *Loop {
	if logger == nil {
		logger = logging.Noop()
	}
	l := &Loop{
		cfg:      cfg,
		nodes:    nodes,
		client:   client,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
		breakers: make(map[registry.Endpoint]*gobreaker.CircuitBreaker),
	}
	l.lastActivity.Store(time.Now().UnixNano())
	return l
}

// Touch records request activity so the loop polls at the active cadence
// instead of the idle one, per spec.md §4.2's "while requests are flowing".
func (l *Loop) Touch() {
	l.lastActivity.Store(time.Now().UnixNano())
}

// Start launches the background polling goroutine. It is safe to call
// Close without ever calling Start.
func (l *Loop) Start(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)
	go l.run()
}

// Close cancels the loop and waits for it to exit, per spec.md §5's
// "discovery loop honors a shutdown signal and exits before returning from
// close()".
func (l *Loop) Close() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	l.poll()
	for {
		wait := l.interval()
		timer := time.NewTimer(wait)
		select {
		case <-l.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			l.poll()
		}
	}
}

func (l *Loop) interval() time.Duration {
	last := time.Unix(0, l.lastActivity.Load())
	if time.Since(last) < l.cfg.ActiveRefreshInterval {
		return l.cfg.ActiveRefreshInterval
	}
	return l.cfg.IdleRefreshInterval
}

// poll walks the scope fallback chain against the first reachable node,
// replacing the registry on the first non-empty result, per spec.md §4.2's
// "Key algorithm — scope probing".
func (l *Loop) poll() {
	ctx, span := telemetry.StartSpan(l.ctx, "discovery.poll")
	defer span.End()

	candidates := l.candidateNodes()
	if len(candidates) == 0 {
		l.logger.Warn("discovery poll skipped: no candidate nodes")
		l.observe(telemetry.DiscoveryFailure)
		return
	}

	for _, sc := range scope.Chain(l.cfg.Scope) {
		hosts, ok := l.pollScope(ctx, sc, candidates)
		if !ok {
			continue
		}
		if len(hosts) == 0 {
			l.logger.Debug("discovery scope matched no nodes, trying fallback",
				zap.String("scope", sc.String()))
			continue
		}
		l.nodes.Replace(l.toEndpoints(hosts))
		l.observe(telemetry.DiscoverySuccess)
		return
	}

	l.logger.Warn("discovery poll found no nodes in any scope in the fallback chain")
	l.observe(telemetry.DiscoveryEmpty)
}

// pollScope tries every candidate node for one scope until one answers
// successfully. ok=false means every candidate failed outright (distinct
// from a successful-but-empty response).
func (l *Loop) pollScope(ctx context.Context, sc scope.Scope, candidates []registry.Endpoint) (hosts []string, ok bool) {
	for _, ep := range candidates {
		result, err := l.breakerFor(ep).Execute(func() (interface{}, error) {
			return l.client.ListLocalNodes(ctx, ep, sc.Query())
		})
		if err != nil {
			l.logger.Debug("discovery poll failed against node",
				zap.String("endpoint", ep.String()), zap.String("scope", sc.String()), zap.Error(err))
			continue
		}
		return result.([]string), true
	}
	return nil, false
}

func (l *Loop) candidateNodes() []registry.Endpoint {
	live := l.nodes.LiveNodesSnapshot()
	if len(live) > 0 {
		return live
	}
	return l.cfg.Seeds
}

func (l *Loop) toEndpoints(hosts []string) []registry.Endpoint {
	out := make([]registry.Endpoint, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, registry.Endpoint{Scheme: l.cfg.Scheme, Host: h, Port: l.cfg.Port})
	}
	return out
}

func (l *Loop) breakerFor(ep registry.Endpoint) *gobreaker.CircuitBreaker {
	l.breakersMu.Lock()
	defer l.breakersMu.Unlock()

	if cb, ok := l.breakers[ep]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "discovery:" + ep.String(),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures == counts.Requests
		},
	})
	l.breakers[ep] = cb
	return cb
}

func (l *Loop) observe(outcome string) {
	if l.metrics != nil {
		l.metrics.ObserveDiscoveryPoll(outcome)
	}
}
