// Command ws-connect registers and removes websocket connections. Clients
// authenticate with the same bearer token the REST API accepts.
package main

import (
	"context"
	"log"

	"ideabox/infrastructure/config"
	"ideabox/infrastructure/di"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg, di.ProvideTracer(cfg))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	validator, err := di.ProvideJWTValidator(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}

	store := di.ProvideConnectionStore(cfg, di.ProvideDynamoDBClient(awsCfg, cfg), logger)
	h := newConnectHandler(store, validator, cfg.WebSocket.Endpoint, logger)
	lambda.Start(h.Handle)
}
