package config

import (
	"testing"

	"ddbrouter/affinity"
	"ddbrouter/registry"
	"ddbrouter/scope"
	"ddbrouter/transform"
)

func validConfig() Config {
	cfg := DefaultConfig([]string{"node1.example.com"})
	cfg.Port = 8080
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got: %v", err)
	}
}

func TestValidateRejectsEmptySeedHosts(t *testing.T) {
	cfg := validConfig()
	cfg.SeedHosts = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty seed hosts")
	}
}

func TestValidateRejectsUnknownScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Scheme = registry.Scheme("ftp")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidateRejectsNilRoutingScope(t *testing.T) {
	cfg := validConfig()
	cfg.RoutingScope = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for nil routing scope")
	}
}

func TestValidateRejectsUnknownKeyRouteAffinityMode(t *testing.T) {
	cfg := validConfig()
	cfg.KeyRouteAffinity.Mode = affinity.Mode("BOGUS")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown key route affinity mode")
	}
}

func TestValidateAcceptsSufficientHeadersWhitelist(t *testing.T) {
	cfg := validConfig()
	cfg.OptimizeHeaders = true
	cfg.CompressionAlgorithm = transform.GZIP
	cfg.AuthenticationEnabled = true
	cfg.HeadersWhitelist = append([]string{}, transform.RequiredHeaders...)
	cfg.HeadersWhitelist = append(cfg.HeadersWhitelist, "Content-Encoding", "Authorization", "X-Amz-Date")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a superset whitelist to validate, got: %v", err)
	}
}

func TestValidateRejectsInsufficientHeadersWhitelist(t *testing.T) {
	cfg := validConfig()
	cfg.OptimizeHeaders = true
	cfg.CompressionAlgorithm = transform.GZIP
	cfg.HeadersWhitelist = []string{"Host"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for a whitelist missing required headers")
	}
}

func TestValidateIgnoresWhitelistWhenOptimizeHeadersDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.OptimizeHeaders = false
	cfg.HeadersWhitelist = []string{"Host"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected whitelist check to be skipped when headers are not optimized, got: %v", err)
	}
}

func TestDefaultConfigUsesClusterScopeAndNoAffinity(t *testing.T) {
	cfg := DefaultConfig([]string{"seed"})
	if !scope.Equal(cfg.RoutingScope, scope.Cluster()) {
		t.Fatalf("expected default routing scope to be cluster, got %v", cfg.RoutingScope)
	}
	if cfg.KeyRouteAffinity.Mode != affinity.None {
		t.Fatalf("expected default key route affinity mode to be NONE, got %v", cfg.KeyRouteAffinity.Mode)
	}
	if cfg.ActiveRefreshInterval >= cfg.IdleRefreshInterval {
		t.Fatal("expected active refresh interval to be shorter than idle refresh interval")
	}
	if cfg.ActiveRefreshInterval <= 0 || cfg.IdleRefreshInterval <= 0 {
		t.Fatal("expected both refresh intervals to be positive")
	}
}
