package guestcart

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockTable keeps snapshots by session_id and honours the two conditions Save issues.
type mockTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	putCalls int
	// beforePut runs once before the next PutItem, outside the lock, to simulate a racing writer.
	beforePut func()
}

func newMockTable() *mockTable {
	return &mockTable{items: map[string]map[string]types.AttributeValue{}}
}

func sessionOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["session_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing session_id")
	}
	return v.Value, nil
}

func (m *mockTable) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	if hook := m.beforePut; hook != nil {
		m.beforePut = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	k, err := sessionOf(params.Item)
	if err != nil {
		return nil, err
	}
	cur, exists := m.items[k]
	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_not_exists(session_id)":
			if exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "version = :expected":
			want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
			got, _ := cur["version"].(*types.AttributeValueMemberN)
			if !exists || got == nil || got.Value != want {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockTable) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := sessionOf(params.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

func (m *mockTable) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not used")
}

func (m *mockTable) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := sessionOf(params.Key)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "version = :expected" {
		want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		got, _ := m.items[k]["version"].(*types.AttributeValueMemberN)
		if got == nil || got.Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(m.items, k)
	return &dyn.DeleteItemOutput{}, nil
}
