package affinity

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PartitionKeyAttribute returns the raw AttributeValue for pkName from the
// field spec.md §4.4.2 says to read it from: Key for UpdateItem/DeleteItem,
// Item for PutItem.
func (r Request) PartitionKeyAttribute(pkName string) (types.AttributeValue, bool) {
	var source map[string]types.AttributeValue
	switch r.Operation {
	case OpPutItem:
		source = r.Item
	case OpUpdateItem, OpDeleteItem:
		source = r.Key
	default:
		return nil, false
	}
	v, ok := source[pkName]
	return v, ok
}

// CanonicalBytes produces the byte sequence spec.md §4.4.2 hashes: UTF-8
// bytes of S, UTF-8 bytes of N as presented (no numeric normalization),
// raw bytes of B.
func CanonicalBytes(v types.AttributeValue) ([]byte, error) {
	switch av := v.(type) {
	case *types.AttributeValueMemberS:
		return []byte(av.Value), nil
	case *types.AttributeValueMemberN:
		return []byte(av.Value), nil
	case *types.AttributeValueMemberB:
		return av.Value, nil
	default:
		return nil, fmt.Errorf("affinity: unsupported partition key attribute type %T", v)
	}
}
