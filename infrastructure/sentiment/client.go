// Package sentiment calls the external sentiment service that labels comment
// text. Calls go through a circuit breaker so an unhealthy service fails fast.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ideabox/domain/core/entities"
	"ideabox/infrastructure/config"
	pkgerrors "ideabox/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "sentiment"

type request struct {
	Text string `json:"text"`
}

type response struct {
	Sentiment    string `json:"sentiment"`
	EvaluationID string `json:"evaluationId"`
}

// Client implements ports.SentimentProvider over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewClient trips the breaker after cfg.BreakerFailures consecutive failures
// and retries after cfg.BreakerOpenDelay.
func NewClient(cfg config.SentimentConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

func (c *Client) Annotate(ctx context.Context, text string) (entities.Annotation, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return entities.Annotation{}, pkgerrors.NewUnavailableError(serviceName)
	}
	if err != nil {
		return entities.Annotation{}, pkgerrors.NewExternalError(serviceName, err)
	}
	return result.(entities.Annotation), nil
}

func (c *Client) call(ctx context.Context, text string) (entities.Annotation, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return entities.Annotation{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return entities.Annotation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return entities.Annotation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return entities.Annotation{}, fmt.Errorf("sentiment service returned %d: %s", resp.StatusCode, snippet)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return entities.Annotation{}, fmt.Errorf("decode sentiment response: %w", err)
	}

	c.logger.Debug("Sentiment annotated",
		zap.String("sentiment", out.Sentiment),
		zap.Duration("took", time.Since(start)),
	)
	return entities.Annotation{Sentiment: out.Sentiment, EvaluationID: out.EvaluationID}, nil
}
