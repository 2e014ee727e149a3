package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

const metricInventoryApplied = "InventoryApplied"

// inventoryApplier is the part of orders.Store the worker needs.
type inventoryApplier interface {
	ApplyInventory(ctx context.Context, orderID uint) (bool, error)
}

// Processor consumes order events from SQS and applies their follow-up work.
type Processor struct {
	orders  inventoryApplier
	metrics *aws.Metrics
}

// NewProcessor creates a worker processor. metrics may be nil.
func NewProcessor(store inventoryApplier, metrics *aws.Metrics) *Processor {
	return &Processor{orders: store, metrics: metrics}
}

// Handle processes an SQS batch and reports the messages that should be retried.
// Requires ReportBatchItemFailures on the event source mapping.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// retried by SQS; after maxReceiveCount it lands in the DLQ
			log.Printf("[worker] message=%s failed: %v", rec.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var evt aws.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &evt); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if evt.Type != aws.EventOrderPlaced {
		log.Printf("[worker] ignoring event type=%q message=%s", evt.Type, rec.MessageId)
		return nil
	}
	if evt.OrderID == 0 {
		return errors.New("order event without order_id")
	}

	log.Printf("[worker] received order=%d cart=%d corr=%s", evt.OrderID, evt.CartID, evt.CorrelationID)

	applied, err := p.orders.ApplyInventory(ctx, evt.OrderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		// placement commits before publishing, so this should never happen
		return fmt.Errorf("order=%d: %w", evt.OrderID, err)
	}
	if err != nil {
		return fmt.Errorf("apply inventory for order=%d: %w", evt.OrderID, err)
	}
	if !applied {
		log.Printf("[worker] duplicate event for order=%d, inventory already applied", evt.OrderID)
		return nil
	}

	if err := p.metrics.Put(ctx, aws.Count(metricInventoryApplied, 1)); err != nil {
		log.Printf("[worker] metrics failed: %v", err)
	}
	log.Printf("[worker] applied inventory for order=%d", evt.OrderID)
	return nil
}
