package dynamodb

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient records requests and answers from per-call hooks. Calls without
// a hook panic through the nil embedded interface.
type fakeClient struct {
	Client

	mu       sync.Mutex
	puts     []*dynamodb.PutItemInput
	deletes  []*dynamodb.DeleteItemInput
	batchGet int

	getItem      func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem      func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	deleteItem   func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query        func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	batchGetItem func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	f.puts = append(f.puts, in)
	f.mu.Unlock()
	if f.putItem == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.putItem(in)
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	f.deletes = append(f.deletes, in)
	f.mu.Unlock()
	if f.deleteItem == nil {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	return f.deleteItem(in)
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(in)
}

func (f *fakeClient) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	f.batchGet++
	f.mu.Unlock()
	return f.batchGetItem(in)
}

func (f *fakeClient) lastPut() *dynamodb.PutItemInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		return nil
	}
	return f.puts[len(f.puts)-1]
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: stringPtr("The conditional request failed")}
}

func stringPtr(s string) *string { return &s }
