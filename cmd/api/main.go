package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/checkout"
	"github.com/imrishuroy/go-storefront/internal/config"
	"github.com/imrishuroy/go-storefront/internal/database"
	"github.com/imrishuroy/go-storefront/internal/guestcart"
	"github.com/imrishuroy/go-storefront/internal/handlers"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/middleware"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.RequireSecrets(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	// order matters: carts reference products, addresses reference carts
	if err := database.Migrate(db, catalog.Migrate, cart.Migrate, orders.Migrate, checkout.Migrate); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	publisher := aws.NewPublisher(clients.SQS, cfg.OrderEventsQueue)
	metrics := aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	if !publisher.Enabled() {
		log.Printf("ORDER_EVENTS_QUEUE_URL not set, order events disabled")
	}

	sessionMaxAge := int(cfg.GuestCartTTL.Seconds())
	r := handlers.NewRouter(handlers.HandlerConfig{
		Catalog:     catalog.NewStore(db),
		Carts:       cart.NewStore(db),
		Orders:      orders.NewStore(db),
		Checkout:    checkout.NewService(db, publisher, metrics),
		GuestCarts:  guestcart.NewStore(clients.DynamoDB, cfg.GuestCartTable, cfg.GuestCartTTL),
		Idempotency: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		Sessions:    middleware.NewCookieStore([]byte(cfg.SessionSecret), sessionMaxAge, !cfg.RunLocal),
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
