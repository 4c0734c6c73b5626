// Package config defines ddbrouter's configuration surface (spec.md §6),
// validated with struct tags the way the teacher's internal/config package
// validates its own Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ddbrouter/affinity"
	"ddbrouter/internal/apperr"
	"ddbrouter/registry"
	"ddbrouter/scope"
	"ddbrouter/transform"
)

// Config is the complete configuration surface from spec.md §6.
type Config struct {
	SeedHosts []string        `validate:"required,min=1,dive,hostname|ip"`
	Scheme    registry.Scheme `validate:"required,oneof=http https"`
	Port      int             `validate:"required,min=1,max=65535"`

	RoutingScope scope.Scope `validate:"required"`

	ActiveRefreshInterval time.Duration `validate:"required,min=100ms"`
	IdleRefreshInterval   time.Duration `validate:"required,min=1s"`

	CompressionAlgorithm    transform.Algorithm `validate:"required,oneof=NONE GZIP"`
	MinCompressionSizeBytes int                 `validate:"min=0"`

	OptimizeHeaders  bool
	HeadersWhitelist []string // nil means "use the required set only"

	AuthenticationEnabled bool

	KeyRouteAffinity KeyRouteAffinity `validate:"required"`

	MaxConnections        int           `validate:"min=1"`
	ConnectionMaxIdleTime time.Duration `validate:"min=0"`
	ConnectionTimeToLive  time.Duration `validate:"min=0"`

	TLS TLSConfig
}

// KeyRouteAffinity is spec.md §6's keyRouteAffinity block.
type KeyRouteAffinity struct {
	Mode                affinity.Mode `validate:"required,oneof=NONE RMW ANY_WRITE"`
	PreconfiguredPkInfo map[string]string
}

// TLSConfig is spec.md §6's tls block, passed through to the TLS
// primitives the CORE does not itself implement (spec.md §1's OUT OF
// SCOPE list).
type TLSConfig struct {
	TrustAll       bool
	TrustSystemCAs bool
	CustomCAs      []string
	VerifyHostname bool
	SessionCache   SessionCacheConfig
}

// SessionCacheConfig is the tls.sessionCache sub-block.
type SessionCacheConfig struct {
	Enabled bool
	Size    int
	Timeout time.Duration
}

// DefaultConfig returns a Config with spec.md's documented defaults:
// GZIP disabled, 1024-byte compression threshold, key affinity off, TLS
// hostname verification on.
func DefaultConfig(seedHosts []string) Config {
	return Config{
		SeedHosts:               seedHosts,
		Scheme:                  registry.HTTP,
		Port:                    8080,
		RoutingScope:            scope.Cluster(),
		ActiveRefreshInterval:   1 * time.Second,
		IdleRefreshInterval:     60 * time.Second,
		CompressionAlgorithm:    transform.None,
		MinCompressionSizeBytes: transform.DefaultMinCompressionSizeBytes,
		OptimizeHeaders:         false,
		AuthenticationEnabled:   true,
		KeyRouteAffinity:        KeyRouteAffinity{Mode: affinity.None},
		MaxConnections:          50,
		ConnectionMaxIdleTime:   60 * time.Second,
		ConnectionTimeToLive:    0,
		TLS: TLSConfig{
			TrustSystemCAs: true,
			VerifyHostname: true,
		},
	}
}

// Validate checks struct tags and the cross-field business rules spec.md
// §7 raises as Configuration errors at client construction: an invalid
// header whitelist, or (per §9's resolution of §4.4.5) nothing further,
// since ddbrouter's explicit-context plumbing makes the sync-only
// restriction unnecessary.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperr.NewConfiguration("config.Validate", err)
	}

	if c.OptimizeHeaders && c.HeadersWhitelist != nil {
		missing := transform.ValidateWhitelist(c.HeadersWhitelist,
			c.CompressionAlgorithm == transform.GZIP, c.AuthenticationEnabled)
		if len(missing) > 0 {
			return apperr.NewConfiguration("config.Validate", fmt.Errorf(
				"headersWhitelist is missing required headers: %s", strings.Join(missing, ", ")))
		}
	}

	return nil
}
