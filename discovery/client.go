package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ddbrouter/registry"
)

// localNodesPath is the discovery endpoint every cluster node exposes, per
// spec.md §6.
const localNodesPath = "/localnodes"

// Client issues the single HTTP call the discovery loop needs: "list nodes
// matching this scope's query string, as seen by this endpoint."
type Client struct {
	http *http.Client
}

// NewClient wraps httpClient for discovery polls. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// ListLocalNodes polls ep for the set of hostnames matching query (one of
// "", "dc=X", "dc=X&rack=Y"), per spec.md §6's discovery protocol. An empty
// slice with a nil error is a legitimate "no matching nodes" response.
func (c *Client) ListLocalNodes(ctx context.Context, ep registry.Endpoint, query string) ([]string, error) {
	url := fmt.Sprintf("%s%s", ep.String(), localNodesPath)
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: polling %s: %w", ep, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("discovery: %s responded %d", ep, resp.StatusCode)
	}

	var hosts []string
	if err := json.NewDecoder(resp.Body).Decode(&hosts); err != nil {
		return nil, fmt.Errorf("discovery: decoding response from %s: %w", ep, err)
	}
	return hosts, nil
}
