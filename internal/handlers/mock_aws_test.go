package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// mockTable is an in-memory DynamoDB table keyed by one string attribute.
// It evaluates the handful of condition and update expressions the stores use.
type mockTable struct {
	mu    sync.Mutex
	pk    string
	items map[string]map[string]types.AttributeValue
}

func newMockTable(pk string) *mockTable {
	return &mockTable{pk: pk, items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockTable) keyOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs[m.pk].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key " + m.pk)
	}
	return v.Value, nil
}

func (m *mockTable) check(cond *string, names map[string]string, values map[string]types.AttributeValue, cur map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	expr := *cond
	if strings.HasPrefix(expr, "attribute_not_exists(") {
		return cur == nil
	}
	parts := strings.SplitN(expr, " = ", 2)
	if len(parts) != 2 || cur == nil {
		return false
	}
	attr := parts[0]
	if n, ok := names[attr]; ok {
		attr = n
	}
	return sameValue(cur[attr], values[parts[1]])
}

func sameValue(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	}
	return false
}

func (m *mockTable) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if !m.check(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, m.items[k]) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockTable) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

// UpdateItem supports "SET a = :x, #b = :y" expressions.
func (m *mockTable) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	cur := m.items[k]
	if !m.check(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, cur) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if cur == nil {
		cur = map[string]types.AttributeValue{m.pk: params.Key[m.pk]}
	}
	for _, assign := range strings.Split(strings.TrimPrefix(*params.UpdateExpression, "SET "), ", ") {
		kv := strings.SplitN(assign, " = ", 2)
		attr := kv[0]
		if n, ok := params.ExpressionAttributeNames[attr]; ok {
			attr = n
		}
		cur[attr] = params.ExpressionAttributeValues[kv[1]]
	}
	m.items[k] = cur
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockTable) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	if !m.check(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, m.items[k]) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(m.items, k)
	return &dyn.DeleteItemOutput{}, nil
}

type mockSQS struct {
	mu    sync.Mutex
	count int
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return &sqs.SendMessageOutput{}, nil
}
