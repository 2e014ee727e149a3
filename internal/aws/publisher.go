package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// EventOrderPlaced is the event type published after a checkout commits.
const EventOrderPlaced = "order.placed"

// OrderEvent is the payload sent from API -> SQS -> worker.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       uint      `json:"order_id"`
	CartID        uint      `json:"cart_id"`
	CustomerID    uint      `json:"customer_id"`
	UserID        uint      `json:"user_id"`
	Total         string    `json:"total"`
	PlacedAt      time.Time `json:"placed_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Enabled reports whether a queue is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.SQS != nil && p.QueueURL != ""
}

// PublishOrderEvent sends evt as JSON with the order id and event type as message attributes.
func (p *Publisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	attrs := map[string]string{
		"event_type": evt.Type,
		"order_id":   strconv.FormatUint(uint64(evt.OrderID), 10),
	}
	if evt.CorrelationID != "" {
		attrs["correlation_id"] = evt.CorrelationID
	}
	return p.SendMessage(ctx, string(body), attrs)
}

// SendMessage sends messageBody to the queue. attributes are sent as String MessageAttributes.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
