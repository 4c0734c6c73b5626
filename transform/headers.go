package transform

import (
	"net/http"
	"strings"
)

// RequiredHeaders is the minimum whitelist spec.md §4.5 mandates regardless
// of user configuration.
var RequiredHeaders = []string{"Host", "X-Amz-Target", "Content-Type", "Content-Length", "Accept-Encoding"}

// HeaderWhitelistTransport wraps an http.RoundTripper and drops every
// request header not present in Whitelist (case-insensitive), applied as
// late as possible — right before bytes hit the socket — per spec.md
// §4.5's "wrapping HTTP transport" contract.
type HeaderWhitelistTransport struct {
	Next      http.RoundTripper
	whitelist map[string]bool
}

// NewHeaderWhitelistTransport wraps next with a whitelist built from
// allowed. Header name matching is case-insensitive.
func NewHeaderWhitelistTransport(next http.RoundTripper, allowed []string) *HeaderWhitelistTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	set := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		set[strings.ToLower(h)] = true
	}
	return &HeaderWhitelistTransport{Next: next, whitelist: set}
}

// RoundTrip drops non-whitelisted headers, preserving the order and
// multiplicity of the headers that remain, then delegates to Next.
func (t *HeaderWhitelistTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	filtered := make(http.Header, len(req.Header))
	for name, values := range req.Header {
		if t.whitelist[strings.ToLower(name)] {
			filtered[name] = values
		}
	}
	req = req.Clone(req.Context())
	req.Header = filtered
	return t.Next.RoundTrip(req)
}

// ValidateWhitelist reports whether allowed is a superset of the headers
// spec.md §4.5 always requires, given whether compression and
// authentication are enabled. Used by the configuration layer to reject an
// invalid whitelist at construction time.
func ValidateWhitelist(allowed []string, compressionEnabled, authenticationEnabled bool) (missing []string) {
	required := append([]string(nil), RequiredHeaders...)
	if compressionEnabled {
		required = append(required, "Content-Encoding")
	}
	if authenticationEnabled {
		required = append(required, "Authorization", "X-Amz-Date")
	}

	set := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		set[strings.ToLower(h)] = true
	}
	for _, req := range required {
		if !set[strings.ToLower(req)] {
			missing = append(missing, req)
		}
	}
	return missing
}
