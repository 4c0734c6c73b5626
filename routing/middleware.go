// Package routing implements component C: the per-request interceptor that
// picks a destination endpoint and rewrites the outbound request's
// scheme/host/port before it is signed. It hooks the AWS SDK's smithy-go
// middleware stack at the two points spec.md §1 calls out — capturing the
// decoded operation during serialization, and rewriting the destination
// at the start of finalization, ahead of signing.
//
// Grounded on internal/di/initialization/aws.go's function-options pattern
// for configuring a *dynamodb.Client (HTTPClient, RetryMode set via
// dynamodb.Options mutators); generalized here from transport tuning to
// stack-mutating APIOptions.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"ddbrouter/affinity"
	"ddbrouter/internal/apperr"
	"ddbrouter/registry"
)

// affinityRequestKey is the private stack-value key carrying the decoded
// Request from the serialize step, where the typed SDK input is still
// available, to the finalize step, where the destination is rewritten.
type affinityRequestKey struct{}

// RewriteDestinationID identifies the Finalize middleware that rewrites
// the outbound URL. transform.WithGzipCompression orders itself relative
// to this ID so compression still runs upstream of signing regardless of
// exactly where the default stack places it.
const RewriteDestinationID = "ddbrouter:RewriteDestination"

// Destinations is the subset of component A the interceptor needs: a plan
// of destinations to draw from.
type Destinations interface {
	NewQueryPlan() registry.QueryPlan
}

// Toucher is the subset of the discovery loop the interceptor needs to
// signal request activity, switching the loop onto its active refresh
// cadence for as long as traffic keeps flowing.
type Toucher interface {
	Touch()
}

// captureRequest is a SerializeMiddleware that decodes the typed SDK input
// into an affinity.Request and stashes it on the context for the finalize
// step. It never rewrites the request itself.
type captureRequest struct{}

func (captureRequest) ID() string { return "ddbrouter:CaptureRequest" }

func (captureRequest) HandleSerialize(ctx context.Context, in middleware.SerializeInput, next middleware.SerializeHandler) (
	out middleware.SerializeOutput, metadata middleware.Metadata, err error,
) {
	if req, ok := decodeRequest(in.Parameters); ok {
		ctx = middleware.WithStackValue(ctx, affinityRequestKey{}, req)
	}
	return next.HandleSerialize(ctx, in)
}

// rewriteDestination is a FinalizeMiddleware that asks a Destinations (and,
// when engine is non-nil, the key-affinity Engine) for the next endpoint
// and overwrites the request URL's scheme/host/port, preserving path and
// query, per spec.md §3's "destination endpoint" definition.
type rewriteDestination struct {
	nodes   Destinations
	engine  *affinity.Engine
	toucher Toucher
}

func (rewriteDestination) ID() string { return RewriteDestinationID }

func (m rewriteDestination) HandleFinalize(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (
	out middleware.FinalizeOutput, metadata middleware.Metadata, err error,
) {
	req, ok := in.Request.(*smithyhttp.Request)
	if !ok {
		return out, metadata, fmt.Errorf("routing: unexpected transport request type %T", in.Request)
	}

	if m.toucher != nil {
		m.toucher.Touch()
	}

	plan := m.planFor(ctx)
	ep, ok := plan.Next()
	if !ok {
		return out, metadata, apperr.NewRouting("routing.rewriteDestination", errors.New("no live endpoints available to route this request"))
	}

	req.URL.Scheme = string(ep.Scheme)
	req.URL.Host = fmt.Sprintf("%s:%d", ep.Host, ep.Port)
	in.Request = req

	return next.HandleFinalize(ctx, in)
}

func (m rewriteDestination) planFor(ctx context.Context) registry.QueryPlan {
	if m.engine == nil {
		return m.nodes.NewQueryPlan()
	}
	affReq, _ := middleware.GetStackValue(ctx, affinityRequestKey{}).(affinity.Request)
	return m.engine.Resolve(affReq)
}

// WithBasicRouting returns a dynamodb.Options mutator that rewrites every
// outbound request's destination via round-robin over nodes (the "basic
// variant" of spec.md §4.3). Pass it to dynamodb.NewFromConfig.
func WithBasicRouting(nodes Destinations, toucher Toucher) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Finalize.Add(rewriteDestination{nodes: nodes, toucher: toucher}, middleware.Before)
		})
	}
}

// WithKeyAffinityRouting returns a dynamodb.Options mutator that routes
// qualifying writes to their key's affinity target and everything else to
// round-robin (the "key-affinity variant" of spec.md §4.3). Pass it to
// dynamodb.NewFromConfig.
func WithKeyAffinityRouting(nodes Destinations, engine *affinity.Engine, toucher Toucher) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		o.APIOptions = append(o.APIOptions,
			func(stack *middleware.Stack) error {
				return stack.Serialize.Add(captureRequest{}, middleware.After)
			},
			func(stack *middleware.Stack) error {
				return stack.Finalize.Add(rewriteDestination{nodes: nodes, engine: engine, toucher: toucher}, middleware.Before)
			},
		)
	}
}
