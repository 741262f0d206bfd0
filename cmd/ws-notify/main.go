// Command ws-notify pushes vote notifications to the recipient's open
// websocket connections. It consumes notification.vote_received events from
// EventBridge.
package main

import (
	"context"
	"log"

	"ideabox/infrastructure/config"
	"ideabox/infrastructure/di"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
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

	store := di.ProvideConnectionStore(cfg, di.ProvideDynamoDBClient(awsCfg, cfg), logger)
	clients := func(endpoint string) poster {
		return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	n := newNotifier(store, clients, cfg.WebSocket.Endpoint, logger)
	lambda.Start(n.Handle)
}
