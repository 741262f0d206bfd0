// Command sentiment-annotator retries sentiment annotation for comments the
// API stored without one. It consumes idea.commented events from EventBridge.
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

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	a := newAnnotator(container.CommandBus, container.Logger)
	lambda.Start(func(ctx context.Context, event annotatorEvent) error {
		err := a.Handle(ctx, event)
		container.FlushMetrics(ctx)
		return err
	})
}
