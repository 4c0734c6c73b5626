package transform

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturingRoundTripper struct {
	got http.Header
}

func (c *capturingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c.got = req.Header
	return httptest.NewRecorder().Result(), nil
}

func TestHeaderWhitelistTransportDropsUnlistedHeaders(t *testing.T) {
	inner := &capturingRoundTripper{}
	rt := NewHeaderWhitelistTransport(inner, []string{
		"Host", "X-Amz-Target", "Content-Type", "Content-Length", "Authorization", "X-Amz-Date",
	})

	req, _ := http.NewRequest(http.MethodPost, "http://example.com/", nil)
	req.Header.Set("Host", "example.com")
	req.Header.Set("X-Amz-Target", "DynamoDB_20120810.PutItem")
	req.Header.Set("Content-Type", "application/x-amz-json-1.0")
	req.Header.Set("Content-Length", "42")
	req.Header.Set("Authorization", "AWS4-HMAC-SHA256 ...")
	req.Header.Set("X-Amz-Date", "20260101T000000Z")
	req.Header.Set("User-Agent", "aws-sdk-go-v2")
	req.Header.Set("X-Amz-Sdk-Invocation-Id", "abc-123")

	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.got) != 6 {
		t.Fatalf("got %d headers on the wire, want exactly the 6 whitelisted ones: %v", len(inner.got), inner.got)
	}
	for _, dropped := range []string{"User-Agent", "X-Amz-Sdk-Invocation-Id"} {
		if inner.got.Get(dropped) != "" {
			t.Fatalf("expected %s to be dropped, still present", dropped)
		}
	}
}

func TestHeaderWhitelistTransportCaseInsensitive(t *testing.T) {
	inner := &capturingRoundTripper{}
	rt := NewHeaderWhitelistTransport(inner, []string{"host"})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("Host", "example.com")

	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got.Get("Host") != "example.com" {
		t.Fatal("expected Host to survive a lowercase whitelist entry")
	}
}

func TestValidateWhitelistRequiresBaseHeaders(t *testing.T) {
	missing := ValidateWhitelist([]string{"Host"}, false, false)
	if len(missing) == 0 {
		t.Fatal("expected missing required headers to be reported")
	}
}

func TestValidateWhitelistAcceptsSupersetOfRequired(t *testing.T) {
	allowed := append([]string{}, RequiredHeaders...)
	missing := ValidateWhitelist(allowed, false, false)
	if len(missing) != 0 {
		t.Fatalf("expected no missing headers, got %v", missing)
	}
}

func TestValidateWhitelistRequiresCompressionAndAuthHeadersWhenEnabled(t *testing.T) {
	allowed := append([]string{}, RequiredHeaders...)
	missing := ValidateWhitelist(allowed, true, true)
	if len(missing) != 3 {
		t.Fatalf("expected Content-Encoding, Authorization, X-Amz-Date to be missing, got %v", missing)
	}
}
