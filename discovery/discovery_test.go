package discovery

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"ddbrouter/registry"
	"ddbrouter/scope"
)

// fakePoller is a minimal Poller recording what Replace was called with.
type fakePoller struct {
	mu       sync.Mutex
	snapshot []registry.Endpoint
	replaced []registry.Endpoint
	calls    int
}

func (f *fakePoller) LiveNodesSnapshot() []registry.Endpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakePoller) Replace(newList []registry.Endpoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = newList
	f.calls++
}

func (f *fakePoller) lastReplace() ([]registry.Endpoint, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaced, f.calls
}

// scopedServer answers /localnodes with a per-query-string canned response.
func scopedServer(t *testing.T, byQuery map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hosts, ok := byQuery[r.URL.RawQuery]
		if !ok {
			http.Error(w, "no route", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hosts)
	}))
}

func endpointForServer(t *testing.T, srv *httptest.Server) registry.Endpoint {
	t.Helper()
	parsed, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL %q: %v", srv.URL, err)
	}
	host, portStr, err := net.SplitHostPort(parsed.Host)
	if err != nil {
		t.Fatalf("splitting host/port from %q: %v", parsed.Host, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parsing port %q: %v", portStr, err)
	}
	return registry.Endpoint{Scheme: registry.HTTP, Host: host, Port: port}
}

func TestPollFallsBackThroughScopeChainToNonEmptyResult(t *testing.T) {
	srv := scopedServer(t, map[string][]string{
		"dc=dc1&rack=rack1": {},
		"dc=dc1":            {"10.0.0.1", "10.0.0.2"},
	})
	defer srv.Close()
	ep := endpointForServer(t, srv)

	poller := &fakePoller{snapshot: []registry.Endpoint{ep}}
	sc := scope.Rack("dc1", "rack1", scope.Dc("dc1", scope.Cluster()))
	loop := New(Config{
		Seeds:                 []registry.Endpoint{ep},
		Scope:                 sc,
		Scheme:                registry.HTTP,
		Port:                  ep.Port,
		ActiveRefreshInterval: time.Second,
		IdleRefreshInterval:   time.Second,
	}, poller, NewClient(srv.Client()), nil, nil)

	loop.ctx = context.Background()
	loop.poll()

	replaced, calls := poller.lastReplace()
	if calls != 1 {
		t.Fatalf("expected exactly one Replace call, got %d", calls)
	}
	if len(replaced) != 2 {
		t.Fatalf("expected 2 endpoints from the dc-scope fallback, got %d: %v", len(replaced), replaced)
	}
}

func TestPollSkipsWhenNoCandidates(t *testing.T) {
	poller := &fakePoller{}
	loop := New(Config{Scope: scope.Cluster()}, poller, NewClient(nil), nil, nil)
	loop.ctx = context.Background()
	loop.poll() // must not panic with zero candidates

	_, calls := poller.lastReplace()
	if calls != 0 {
		t.Fatalf("expected no Replace call with zero candidates, got %d", calls)
	}
}

func TestLoopTouchSwitchesToActiveCadence(t *testing.T) {
	loop := New(Config{
		ActiveRefreshInterval: 50 * time.Millisecond,
		IdleRefreshInterval:   time.Hour,
	}, &fakePoller{}, NewClient(nil), nil, nil)

	loop.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())
	if got := loop.interval(); got != time.Hour {
		t.Fatalf("expected idle interval after long inactivity, got %v", got)
	}

	loop.Touch()
	if got := loop.interval(); got != 50*time.Millisecond {
		t.Fatalf("expected active interval right after Touch, got %v", got)
	}
}

func TestLoopStartAndClose(t *testing.T) {
	srv := scopedServer(t, map[string][]string{"": {"10.0.0.1"}})
	defer srv.Close()
	ep := endpointForServer(t, srv)

	poller := &fakePoller{snapshot: []registry.Endpoint{ep}}
	loop := New(Config{
		Seeds:                 []registry.Endpoint{ep},
		Scope:                 scope.Cluster(),
		Scheme:                registry.HTTP,
		Port:                  ep.Port,
		ActiveRefreshInterval: time.Hour,
		IdleRefreshInterval:   time.Hour,
	}, poller, NewClient(srv.Client()), nil, nil)

	loop.Start(context.Background())
	if !waitForDiscovery(func() bool { _, calls := poller.lastReplace(); return calls >= 1 }, time.Second) {
		t.Fatal("expected at least one poll after Start")
	}
	loop.Close() // must return; run() must have exited
}

func waitForDiscovery(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
