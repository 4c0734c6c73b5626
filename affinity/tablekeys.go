package affinity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ddbrouter/internal/logging"
	"ddbrouter/internal/telemetry"

	"go.uber.org/zap"
)

// DiscoveryStatus is the per-table discovery state from spec.md §3's
// "parallel mapping tableName -> discoveryStatus".
type DiscoveryStatus string

const (
	StatusNone     DiscoveryStatus = "none"
	StatusInflight DiscoveryStatus = "inflight"
	StatusDone     DiscoveryStatus = "done"
)

// DescribeTableFunc resolves a table's partition-key attribute name,
// typically by issuing a DescribeTable call against a live endpoint. It is
// supplied by the routing layer, which owns the DynamoDB client.
type DescribeTableFunc func(ctx context.Context, table string) (string, error)

// discoveryTimeout bounds the background DescribeTable call so a stuck
// table never leaves a permanently inflight entry.
const discoveryTimeout = 10 * time.Second

// TableKeys caches tableName -> partition-key attribute name, populating
// missing entries via an asynchronous, deduplicated DescribeTable call
// (spec.md §4.4.2/§4.4.5). Lookup never blocks: a cache miss returns
// ok=false immediately and fires the discovery in the background.
type TableKeys struct {
	names    sync.Map // tableName -> string
	status   sync.Map // tableName -> DiscoveryStatus
	group    singleflight.Group
	discover DescribeTableFunc
	logger   *logging.Logger
	metrics  *telemetry.Metrics
}

// NewTableKeys builds a TableKeys seeded with preconfigured entries
// (spec.md §6's keyRouteAffinity.preconfiguredPkInfo). discover may be nil,
// in which case missing entries are never resolved and every qualifying
// request for an unconfigured table falls back to round robin forever.
func NewTableKeys(preconfigured map[string]string, discover DescribeTableFunc, logger *logging.Logger, metrics *telemetry.Metrics) *TableKeys {
	if logger == nil {
		logger = logging.Noop()
	}
	tk := &TableKeys{discover: discover, logger: logger, metrics: metrics}
	for table, attr := range preconfigured {
		tk.names.Store(table, attr)
		tk.status.Store(table, StatusDone)
	}
	return tk
}

// Lookup returns the cached partition-key attribute name for table. On a
// miss it starts (at most one) background discovery and returns ok=false;
// callers fall back to round robin for the triggering request, per
// spec.md §4.4.2.
func (tk *TableKeys) Lookup(table string) (string, bool) {
	if v, ok := tk.names.Load(table); ok {
		return v.(string), true
	}
	tk.ensureDiscoveryStarted(table)
	return "", false
}

func (tk *TableKeys) ensureDiscoveryStarted(table string) {
	if tk.discover == nil {
		return
	}
	if prev, alreadyTracked := tk.status.LoadOrStore(table, StatusInflight); alreadyTracked {
		// A table reset to none by a failed discovery is retried; an
		// inflight or done table is left alone.
		if prev != StatusNone || !tk.status.CompareAndSwap(table, StatusNone, StatusInflight) {
			return
		}
	}
	go tk.runDiscovery(table)
}

func (tk *TableKeys) runDiscovery(table string) {
	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()

	result, err, _ := tk.group.Do(table, func() (interface{}, error) {
		return tk.discover(ctx, table)
	})
	if err != nil {
		tk.logger.Warn("partition key discovery failed",
			zap.String("table", table), zap.Error(err))
		// Reset to none so a future Lookup miss retries rather than
		// being stuck "inflight" forever.
		tk.status.Store(table, StatusNone)
		return
	}

	name := result.(string)
	tk.names.Store(table, name)
	tk.status.Store(table, StatusDone)
	tk.logger.Debug("partition key discovered",
		zap.String("table", table), zap.String("attribute", name))
	tk.reportCacheState()
}

func (tk *TableKeys) reportCacheState() {
	if tk.metrics == nil {
		return
	}
	counts := map[DiscoveryStatus]int{}
	tk.status.Range(func(_, v interface{}) bool {
		counts[v.(DiscoveryStatus)]++
		return true
	})
	for status, n := range counts {
		tk.metrics.SetAffinityCacheState(string(status), n)
	}
}
