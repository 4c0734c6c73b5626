package affinity

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// Qualifies implements spec.md §4.4.1's qualification predicate: whether
// this request should be routed by partition key under mode.
func (r Request) Qualifies(mode Mode) bool {
	if mode == None {
		return false
	}
	if !r.isSingleItemWrite() {
		return false
	}
	if mode == AnyWrite {
		return true
	}
	// mode == RMW
	return r.triggersReadBeforeWrite()
}

func (r Request) isSingleItemWrite() bool {
	switch r.Operation {
	case OpPutItem, OpUpdateItem, OpDeleteItem:
		return true
	default:
		// Reads (GetItem, Query, Scan, BatchGetItem) and BatchWriteItem
		// (no single partition key) never qualify.
		return false
	}
}

// triggersReadBeforeWrite implements the fixed RMW trigger list from
// spec.md §4.4.1. It is intentionally not extended beyond this list (the
// spec's open question on less-common AttributeUpdates shapes is resolved
// by *not* expanding it).
func (r Request) triggersReadBeforeWrite() bool {
	if r.ConditionExpression != "" {
		return true
	}
	if r.HasExpected {
		return true
	}
	switch r.ReturnValues {
	case types.ReturnValueAllOld, types.ReturnValueUpdatedOld, types.ReturnValueAllNew:
		return true
	}
	if r.Operation != OpUpdateItem {
		return false
	}
	if r.UpdateExpression != "" {
		return true
	}
	for _, u := range r.AttributeUpdates {
		if u.Action == types.AttributeActionAdd {
			return true
		}
		if u.Action == types.AttributeActionDelete && u.HasValue {
			return true
		}
	}
	return false
}
