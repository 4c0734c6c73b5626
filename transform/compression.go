// Package transform implements component E: the outgoing-request
// transforms that run between routing and the wire. GZIP compression is a
// Finalize middleware (runs after destination rewrite, before signing, so
// signing covers the final bytes); the header whitelist is a wrapping
// http.RoundTripper (runs after signing, right before the socket).
//
// Grounded on internal/di/initialization/aws.go's custom http.Transport
// construction for the "wrap the raw transport" shape, generalized here
// from connection pooling to header filtering.
package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"ddbrouter/internal/apperr"
	"ddbrouter/routing"
)

// Algorithm names the compression scheme, per spec.md §6's
// compressionAlgorithm configuration knob.
type Algorithm string

const (
	None Algorithm = "NONE"
	GZIP Algorithm = "GZIP"
)

// DefaultMinCompressionSizeBytes is spec.md §4.5's default threshold.
const DefaultMinCompressionSizeBytes = 1024

// GzipCompression is a Finalize middleware that compresses the request
// body with GZIP when it is configured on and the body is at least
// MinSizeBytes, per spec.md §4.5.
type GzipCompression struct {
	Algorithm    Algorithm
	MinSizeBytes int
}

// NewGzipCompression builds a GzipCompression step with spec.md's default
// threshold when minSizeBytes is zero.
func NewGzipCompression(algorithm Algorithm, minSizeBytes int) *GzipCompression {
	if minSizeBytes <= 0 {
		minSizeBytes = DefaultMinCompressionSizeBytes
	}
	return &GzipCompression{Algorithm: algorithm, MinSizeBytes: minSizeBytes}
}

func (*GzipCompression) ID() string { return "ddbrouter:GzipCompression" }

func (c *GzipCompression) HandleFinalize(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (
	out middleware.FinalizeOutput, metadata middleware.Metadata, err error,
) {
	req, ok := in.Request.(*smithyhttp.Request)
	if !ok {
		return out, metadata, fmt.Errorf("transform: unexpected transport request type %T", in.Request)
	}

	if c.Algorithm == GZIP {
		if err := c.compress(req); err != nil {
			return out, metadata, apperr.NewCompression("transform.GzipCompression.compress", err)
		}
	}

	return next.HandleFinalize(ctx, in)
}

func (c *GzipCompression) compress(req *smithyhttp.Request) error {
	stream := req.GetStream()
	if stream == nil {
		return nil
	}
	body, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) < c.MinSizeBytes {
		return req.SetStream(io.NopCloser(bytes.NewReader(body)))
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(body); err != nil {
		return fmt.Errorf("gzip writing body: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("gzip closing body: %w", err)
	}

	if err := req.SetStream(io.NopCloser(bytes.NewReader(compressed.Bytes()))); err != nil {
		return fmt.Errorf("setting compressed stream: %w", err)
	}
	req.Header.Set("Content-Encoding", "gzip")
	req.ContentLength = int64(compressed.Len())
	req.Header.Set("Content-Length", strconv.Itoa(compressed.Len()))
	return nil
}

// WithGzipCompression wires GzipCompression into a dynamodb client's
// middleware stack, placed immediately after the routing destination
// rewrite so it observes the final destination but still runs upstream of
// signing.
func WithGzipCompression(step *GzipCompression) func(stack *middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Insert(step, routing.RewriteDestinationID, middleware.After)
	}
}
