package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ideabox/domain/core/entities"
	"ideabox/infrastructure/config"
	pkgerrors "ideabox/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(config.SentimentConfig{
		Endpoint:         url,
		APIKey:           "secret",
		Timeout:          time.Second,
		BreakerFailures:  2,
		BreakerOpenDelay: time.Minute,
	}, nil)
}

func TestClient_Annotate(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "love it", req.Text)
		_ = json.NewEncoder(w).Encode(response{Sentiment: "positive", EvaluationID: "ev-1"})
	}))
	defer srv.Close()

	// Act
	got, err := newTestClient(srv.URL).Annotate(context.Background(), "love it")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entities.Annotation{Sentiment: "positive", EvaluationID: "ev-1"}, got)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	for i := 0; i < 2; i++ {
		_, err := c.Annotate(context.Background(), "meh")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	}
	_, err := c.Annotate(context.Background(), "meh")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, int32(2), calls.Load(), "open breaker does not call the service")
}
