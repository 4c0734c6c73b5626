package affinity

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ddbrouter/registry"
)

// mustMarshalMap is attributevalue.MarshalMap with the error folded into a
// test failure, for fixtures where the input is always marshalable.
func mustMarshalMap(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	m, err := attributevalue.MarshalMap(v)
	if err != nil {
		t.Fatalf("marshaling fixture item: %v", err)
	}
	return m
}

// stubDestinations records which plan constructor was invoked, so tests can
// assert the engine picked the expected strategy without depending on
// registry's internals.
type stubDestinations struct {
	basicCalls  int
	seededSeeds []int64
}

func (s *stubDestinations) NewQueryPlan() registry.QueryPlan {
	s.basicCalls++
	return registry.QueryPlan(nil)
}

func (s *stubDestinations) NewSeededQueryPlan(seed int64) registry.QueryPlan {
	s.seededSeeds = append(s.seededSeeds, seed)
	return registry.QueryPlan(nil)
}

func TestEngineResolveFallsBackWhenModeNone(t *testing.T) {
	dest := &stubDestinations{}
	keys := NewTableKeys(map[string]string{"orders": "orderId"}, nil, nil, nil)
	e := NewEngine(None, keys, dest, nil, nil)

	r := Request{
		Operation: OpPutItem,
		TableName: "orders",
		Item:      mustMarshalMap(t, map[string]string{"orderId": "o1"}),
	}
	e.Resolve(r)

	if dest.basicCalls != 1 || len(dest.seededSeeds) != 0 {
		t.Fatalf("mode None should always take the round-robin path, got basicCalls=%d seeded=%v",
			dest.basicCalls, dest.seededSeeds)
	}
}

func TestEngineResolveUsesSeededPlanWhenQualifyingAndKeyKnown(t *testing.T) {
	dest := &stubDestinations{}
	keys := NewTableKeys(map[string]string{"orders": "orderId"}, nil, nil, nil)
	e := NewEngine(AnyWrite, keys, dest, nil, nil)

	r := Request{
		Operation: OpPutItem,
		TableName: "orders",
		Item:      mustMarshalMap(t, map[string]string{"orderId": "o1"}),
	}
	e.Resolve(r)

	if len(dest.seededSeeds) != 1 {
		t.Fatalf("expected exactly one seeded plan request, got %d (basicCalls=%d)",
			len(dest.seededSeeds), dest.basicCalls)
	}
}

func TestEngineResolveIsDeterministicForSameKey(t *testing.T) {
	dest := &stubDestinations{}
	keys := NewTableKeys(map[string]string{"orders": "orderId"}, nil, nil, nil)
	e := NewEngine(AnyWrite, keys, dest, nil, nil)

	r := Request{
		Operation: OpPutItem,
		TableName: "orders",
		Item:      mustMarshalMap(t, map[string]string{"orderId": "same-key"}),
	}
	e.Resolve(r)
	e.Resolve(r)

	if len(dest.seededSeeds) != 2 || dest.seededSeeds[0] != dest.seededSeeds[1] {
		t.Fatalf("expected identical seeds for identical keys, got %v", dest.seededSeeds)
	}
}

func TestEngineResolveFallsBackWhenTableKeyUnknown(t *testing.T) {
	dest := &stubDestinations{}
	keys := NewTableKeys(nil, nil, nil, nil) // no preconfigured entry, no discoverer
	e := NewEngine(AnyWrite, keys, dest, nil, nil)

	r := Request{
		Operation: OpPutItem,
		TableName: "widgets",
		Item:      mustMarshalMap(t, map[string]string{"pk": "w1"}),
	}
	e.Resolve(r)

	if dest.basicCalls != 1 || len(dest.seededSeeds) != 0 {
		t.Fatalf("expected round-robin fallback on unknown table key, got basicCalls=%d seeded=%v",
			dest.basicCalls, dest.seededSeeds)
	}
}

func TestEngineResolveFallsBackWhenRequestDoesNotQualify(t *testing.T) {
	dest := &stubDestinations{}
	keys := NewTableKeys(map[string]string{"orders": "orderId"}, nil, nil, nil)
	e := NewEngine(RMW, keys, dest, nil, nil)

	r := Request{Operation: OpGetItem, TableName: "orders"}
	e.Resolve(r)

	if dest.basicCalls != 1 || len(dest.seededSeeds) != 0 {
		t.Fatalf("expected round-robin fallback for non-qualifying request, got basicCalls=%d seeded=%v",
			dest.basicCalls, dest.seededSeeds)
	}
}
