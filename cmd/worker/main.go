package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/config"
	"github.com/imrishuroy/go-storefront/internal/database"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	var metrics *aws.Metrics
	if clients, err := aws.NewAWSClients(context.Background()); err != nil {
		log.Printf("[worker] aws clients unavailable, metrics disabled: %v", err)
	} else {
		metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}

	p := NewProcessor(orders.NewStore(db), metrics)

	// If RUN_LOCAL=true, process a single simulated SQS event and exit.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.placed","order_id":1}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{
					MessageId: "local-1",
					Body:      testBody,
				},
			},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatalf("local handler failed: %v %+v", err, resp.BatchItemFailures)
		}
		return
	}

	lambda.Start(p.Handle)
}
