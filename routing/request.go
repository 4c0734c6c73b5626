package routing

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"ddbrouter/affinity"
)

// decodeRequest builds the engine's operation-agnostic Request view from
// whatever typed DynamoDB input the SDK is about to serialize. Operations
// the engine never routes by key still get a Request (via
// affinity.NonAffinityRequest) so logging/metrics can name the table.
func decodeRequest(params interface{}) (affinity.Request, bool) {
	switch in := params.(type) {
	case *dynamodb.PutItemInput:
		return affinity.FromPutItemInput(in), true
	case *dynamodb.UpdateItemInput:
		return affinity.FromUpdateItemInput(in), true
	case *dynamodb.DeleteItemInput:
		return affinity.FromDeleteItemInput(in), true
	case *dynamodb.GetItemInput:
		return affinity.NonAffinityRequest(affinity.OpGetItem, derefTable(in.TableName)), true
	case *dynamodb.QueryInput:
		return affinity.NonAffinityRequest(affinity.OpQuery, derefTable(in.TableName)), true
	case *dynamodb.ScanInput:
		return affinity.NonAffinityRequest(affinity.OpScan, derefTable(in.TableName)), true
	case *dynamodb.BatchGetItemInput:
		return affinity.NonAffinityRequest(affinity.OpBatchGetItem, ""), true
	case *dynamodb.BatchWriteItemInput:
		return affinity.NonAffinityRequest(affinity.OpBatchWriteItem, ""), true
	default:
		return affinity.Request{}, false
	}
}

func derefTable(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
