package guestcart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/cart"
)

// ErrConcurrentUpdate is returned when another writer saved the snapshot first
// and retries are exhausted.
var ErrConcurrentUpdate = errors.New("guest cart modified concurrently")

const defaultMaxAttempts = 3

// CartMerger is the part of cart.Store used when merging.
type CartMerger interface {
	AddLines(ctx context.Context, c *cart.Cart, lines []cart.LineInput, claim func() error) (int, error)
}

// Store persists guest snapshots in DynamoDB.
type Store struct {
	client      aws.DynamoDBAPI
	tableName   string
	ttlWindow   time.Duration
	maxAttempts int
	nowFunc     func() time.Time
}

// NewStore returns a Store writing to tableName; snapshots expire ttlWindow after their last write.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:      client,
		tableName:   tableName,
		ttlWindow:   ttlWindow,
		maxAttempts: defaultMaxAttempts,
		nowFunc:     time.Now,
	}
}

// Enabled reports whether guest carts are configured.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil && s.tableName != ""
}

// Get returns the snapshot for a session, or an empty unsaved one.
func (s *Store) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            sessionKey(sessionID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return &Snapshot{SessionID: sessionID}, nil
	}
	var snap Snapshot
	if err := attributevalue.UnmarshalMap(out.Item, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	// expired items linger until the TTL sweeper runs
	if snap.ExpiresAt > 0 && snap.ExpiresAt < s.nowFunc().Unix() {
		return &Snapshot{SessionID: sessionID, Version: snap.Version}, nil
	}
	return &snap, nil
}

// Save writes snap if nobody else saved since it was read. On success
// snap.Version is bumped. A lost race returns ErrConcurrentUpdate.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	now := s.nowFunc()
	next := *snap
	next.Version = snap.Version + 1
	next.UpdatedAt = now
	next.ExpiresAt = now.Add(s.ttlWindow).Unix()
	if next.Lines == nil {
		next.Lines = []Line{}
	}

	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}
	if snap.Version == 0 {
		input.ConditionExpression = awsString("attribute_not_exists(session_id)")
	} else {
		input.ConditionExpression = awsString("version = :expected")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(snap.Version, 10)},
		}
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("put item: %w", err)
	}
	*snap = next
	return nil
}

// Mutate reads, applies fn and saves, retrying on version conflicts.
func (s *Store) Mutate(ctx context.Context, sessionID string, fn func(*Snapshot)) (*Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		snap, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		fn(snap)
		err = s.Save(ctx, snap)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return nil, err
		}
		lastErr = err
		log.Printf("[guestcart] version conflict session=%s attempt=%d", sessionID, attempt)
	}
	return nil, lastErr
}

// Delete drops a session's snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// MergeInto moves every guest line onto the user's cart. The lines are applied in one
// cart transaction that also deletes the snapshot at the version that was read, so a
// failed or lost merge leaves both sides untouched. Lines whose product no longer exists
// are skipped. Returns the number of lines merged.
func (s *Store) MergeInto(ctx context.Context, sessionID string, carts CartMerger, c *cart.Cart) (int, error) {
	snap, err := s.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if snap.Version == 0 {
		return 0, nil
	}
	lines := make([]cart.LineInput, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, cart.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	merged, err := carts.AddLines(ctx, c, lines, func() error {
		return s.deleteAt(ctx, sessionID, snap.Version)
	})
	if err != nil {
		return 0, fmt.Errorf("merge session %s: %w", sessionID, err)
	}
	return merged, nil
}

// deleteAt drops the snapshot only while it is still at version.
func (s *Store) deleteAt(ctx context.Context, sessionID string, version int64) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 sessionKey(sessionID),
		ConditionExpression: awsString("version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
		},
	})
	if isConditionalFailure(err) {
		return ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"session_id": &types.AttributeValueMemberS{Value: sessionID},
	}
}

func isConditionalFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var sc smithy.APIError
	return errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
