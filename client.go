// Package ddbrouter builds a DynamoDB client whose requests are spread
// across a discovered set of nodes instead of a single regional
// endpoint, with optional per-key routing affinity. It wires together
// registry (node set + query plans), discovery (background refresh),
// affinity (key-aware destination selection) and transform (compression,
// header trimming) around an *dynamodb.Client, the way the teacher's
// internal/di package wires repositories, caches and AWS clients around
// its application services.
package ddbrouter

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ddbrouter/affinity"
	"ddbrouter/config"
	"ddbrouter/discovery"
	"ddbrouter/internal/apperr"
	"ddbrouter/internal/logging"
	"ddbrouter/internal/telemetry"
	"ddbrouter/registry"
	"ddbrouter/routing"
	"ddbrouter/transform"

	"github.com/prometheus/client_golang/prometheus"
)

// Client is a routing-aware DynamoDB client: a *dynamodb.Client plus the
// background machinery (discovery loop, affinity engine) that keeps it
// pointed at live nodes.
type Client struct {
	DynamoDB *dynamodb.Client

	nodes     *registry.LiveNodes
	discovery *discovery.Loop
	engine    *affinity.Engine
	logger    *logging.Logger
	closed    bool
}

// New builds a Client from cfg: it validates the configuration, starts
// the background discovery loop against the seed hosts, and constructs a
// *dynamodb.Client whose middleware stack rewrites every request's
// destination per the configured routing scope and key affinity mode.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.Noop()
	}

	metrics, err := telemetry.NewMetrics(o.registerer)
	if err != nil {
		return nil, apperr.NewConfiguration("ddbrouter.New", err)
	}

	seeds := make([]registry.Endpoint, 0, len(cfg.SeedHosts))
	for _, host := range cfg.SeedHosts {
		seeds = append(seeds, registry.Endpoint{Scheme: cfg.Scheme, Host: host, Port: cfg.Port})
	}
	nodes := registry.New(seeds, metrics)

	httpClient := buildHTTPClient(cfg)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, apperr.NewConfiguration("ddbrouter.New", err)
	}

	disc := discovery.New(discoveryConfig(cfg, seeds), nodes, discovery.NewClient(httpClient), logger, metrics)

	// describeTable needs the very *dynamodb.Client this function builds,
	// which in turn needs the routing middleware, which needs the engine
	// below. ddb is filled in after NewFromConfig returns; the closure is
	// only invoked later, on a cache miss during a real request.
	var ddb *dynamodb.Client
	discoverKey := func(ctx context.Context, table string) (string, error) {
		return describeTableKey(ddb)(ctx, table)
	}

	var engine *affinity.Engine
	var routeOption func(*dynamodb.Options)
	if cfg.KeyRouteAffinity.Mode == affinity.None {
		routeOption = routing.WithBasicRouting(nodes, disc)
	} else {
		keys := affinity.NewTableKeys(cfg.KeyRouteAffinity.PreconfiguredPkInfo, discoverKey, logger, metrics)
		engine = affinity.NewEngine(cfg.KeyRouteAffinity.Mode, keys, nodes, logger, metrics)
		routeOption = routing.WithKeyAffinityRouting(nodes, engine, disc)
	}

	ddb = dynamodb.NewFromConfig(awsCfg, func(dopt *dynamodb.Options) {
		dopt.HTTPClient = httpClient
		routeOption(dopt)
		if cfg.CompressionAlgorithm == transform.GZIP {
			dopt.APIOptions = append(dopt.APIOptions,
				transform.WithGzipCompression(transform.NewGzipCompression(cfg.CompressionAlgorithm, cfg.MinCompressionSizeBytes)))
		}
	})

	disc.Start(ctx)

	return &Client{
		DynamoDB:  ddb,
		nodes:     nodes,
		discovery: disc,
		engine:    engine,
		logger:    logger,
	}, nil
}

// describeTableKey returns an affinity.DescribeTableFunc backed by a real
// DescribeTable call, used to learn a table's partition key attribute the
// first time a request against it needs one.
func describeTableKey(ddb *dynamodb.Client) affinity.DescribeTableFunc {
	return func(ctx context.Context, table string) (string, error) {
		out, err := ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err != nil {
			return "", fmt.Errorf("describing table %s: %w", table, err)
		}
		for _, key := range out.Table.KeySchema {
			if key.KeyType == types.KeyTypeHash {
				return *key.AttributeName, nil
			}
		}
		return "", fmt.Errorf("table %s has no hash key in its key schema", table)
	}
}

func discoveryConfig(cfg config.Config, seeds []registry.Endpoint) discovery.Config {
	return discovery.Config{
		Seeds:                 seeds,
		Scope:                 cfg.RoutingScope,
		Scheme:                cfg.Scheme,
		Port:                  cfg.Port,
		ActiveRefreshInterval: cfg.ActiveRefreshInterval,
		IdleRefreshInterval:   cfg.IdleRefreshInterval,
	}
}

func buildHTTPClient(cfg config.Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		IdleConnTimeout:     cfg.ConnectionMaxIdleTime,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.Scheme == registry.HTTPS {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLS.TrustAll || !cfg.TLS.VerifyHostname,
		}
	}

	var rt http.RoundTripper = transport
	if cfg.OptimizeHeaders {
		whitelist := cfg.HeadersWhitelist
		if whitelist == nil {
			whitelist = append([]string(nil), transform.RequiredHeaders...)
			if cfg.CompressionAlgorithm == transform.GZIP {
				whitelist = append(whitelist, "Content-Encoding")
			}
			if cfg.AuthenticationEnabled {
				whitelist = append(whitelist, "Authorization", "X-Amz-Date")
			}
		}
		rt = transform.NewHeaderWhitelistTransport(transport, whitelist)
	}

	return &http.Client{Transport: rt}
}

// Close stops the background discovery loop and waits for it to exit. It
// does not close the HTTP client New built for the dynamodb.Client; that
// client's transport and idle connections are left open.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.discovery.Close()
	return nil
}

// LiveNodes returns a snapshot of the nodes currently believed live,
// primarily useful for tests and diagnostics.
func (c *Client) LiveNodes() []registry.Endpoint {
	return c.nodes.LiveNodesSnapshot()
}

// Option customizes Client construction beyond what config.Config
// exposes, mirroring the teacher's functional-options usage for its AWS
// clients.
type Option func(*options)

type options struct {
	logger     *logging.Logger
	registerer prometheus.Registerer
}

func defaultOptions() *options {
	return &options{registerer: prometheus.DefaultRegisterer}
}

// WithLogger overrides the *logging.Logger used by discovery and the
// affinity engine. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetricsRegisterer overrides the Prometheus registerer collectors
// are registered against. Defaults to prometheus.DefaultRegisterer.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}
