package affinity

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names the DynamoDB operations the engine recognizes, per
// spec.md §3's "Request-shape descriptor".
type Operation string

const (
	OpPutItem        Operation = "PutItem"
	OpUpdateItem     Operation = "UpdateItem"
	OpDeleteItem     Operation = "DeleteItem"
	OpBatchWriteItem Operation = "BatchWriteItem"
	OpBatchGetItem   Operation = "BatchGetItem"
	OpQuery          Operation = "Query"
	OpScan           Operation = "Scan"
	OpGetItem        Operation = "GetItem"
)

// AttributeUpdate is the engine's view of one legacy AttributeUpdates
// entry, reduced to the two facts §4.4.1 cares about: the action, and
// whether a value is attached (distinguishing a value-less DELETE, which
// does not trigger RMW, from a set-element-removal DELETE, which does).
type AttributeUpdate struct {
	Action   types.AttributeAction
	HasValue bool
}

// Request is the engine's decoded view of one outbound DynamoDB operation.
// The routing interceptor builds one of these from the typed SDK input
// before handing it to the affinity engine, keeping the SDK's wire types
// out of the qualification/extraction logic below.
type Request struct {
	Operation           Operation
	TableName           string
	Item                map[string]types.AttributeValue
	Key                 map[string]types.AttributeValue
	ConditionExpression string
	HasExpected         bool
	ReturnValues        types.ReturnValue
	UpdateExpression    string
	AttributeUpdates    map[string]AttributeUpdate
}

// FromPutItemInput builds a Request from a typed PutItemInput.
func FromPutItemInput(in *dynamodb.PutItemInput) Request {
	return Request{
		Operation:           OpPutItem,
		TableName:           deref(in.TableName),
		Item:                in.Item,
		ConditionExpression: deref(in.ConditionExpression),
		HasExpected:         len(in.Expected) > 0,
		ReturnValues:        in.ReturnValues,
	}
}

// FromUpdateItemInput builds a Request from a typed UpdateItemInput.
func FromUpdateItemInput(in *dynamodb.UpdateItemInput) Request {
	updates := make(map[string]AttributeUpdate, len(in.AttributeUpdates))
	for name, u := range in.AttributeUpdates {
		updates[name] = AttributeUpdate{Action: u.Action, HasValue: u.Value != nil}
	}
	return Request{
		Operation:           OpUpdateItem,
		TableName:           deref(in.TableName),
		Key:                 in.Key,
		ConditionExpression: deref(in.ConditionExpression),
		HasExpected:         len(in.Expected) > 0,
		ReturnValues:        in.ReturnValues,
		UpdateExpression:    deref(in.UpdateExpression),
		AttributeUpdates:    updates,
	}
}

// FromDeleteItemInput builds a Request from a typed DeleteItemInput.
func FromDeleteItemInput(in *dynamodb.DeleteItemInput) Request {
	return Request{
		Operation:           OpDeleteItem,
		TableName:           deref(in.TableName),
		Key:                 in.Key,
		ConditionExpression: deref(in.ConditionExpression),
		HasExpected:         len(in.Expected) > 0,
		ReturnValues:        in.ReturnValues,
	}
}

// NonAffinityRequest builds a Request for an operation the engine never
// routes by key (reads and BatchWriteItem), just enough to carry the
// table name through for metrics/logging.
func NonAffinityRequest(op Operation, tableName string) Request {
	return Request{Operation: op, TableName: tableName}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
