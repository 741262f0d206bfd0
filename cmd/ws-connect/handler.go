package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ideabox/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

type connectionStore interface {
	Save(ctx context.Context, connectionID, userID, endpoint string, at time.Time) error
	Delete(ctx context.Context, connectionID string) error
}

type tokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type connectHandler struct {
	store     connectionStore
	validator tokenValidator
	endpoint  string
	logger    *zap.Logger
	now       func() time.Time
}

// newConnectHandler creates the handler. An empty endpoint is derived from
// the request's domain and stage.
func newConnectHandler(store connectionStore, validator tokenValidator, endpoint string, logger *zap.Logger) *connectHandler {
	return &connectHandler{
		store:     store,
		validator: validator,
		endpoint:  endpoint,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *connectHandler) Handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	switch req.RequestContext.RouteKey {
	case "$disconnect":
		if err := h.store.Delete(ctx, connectionID); err != nil {
			h.logger.Warn("Failed to delete connection", zap.String("connection_id", connectionID), zap.Error(err))
		}
		return respond(http.StatusOK, ""), nil

	case "$connect":
		token := req.QueryStringParameters["token"]
		if token == "" {
			token = strings.TrimPrefix(header(req.Headers, "Authorization"), "Bearer ")
		}
		if token == "" {
			return respond(http.StatusUnauthorized, `{"error":"missing token"}`), nil
		}

		claims, err := h.validator.ValidateToken(token)
		if err != nil || claims.UserID() == "" {
			h.logger.Info("Rejected websocket connection", zap.String("connection_id", connectionID), zap.Error(err))
			return respond(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
		}

		endpoint := h.endpoint
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://%s/%s", req.RequestContext.DomainName, req.RequestContext.Stage)
		}
		if err := h.store.Save(ctx, connectionID, claims.UserID(), endpoint, h.now()); err != nil {
			h.logger.Error("Failed to store connection", zap.String("connection_id", connectionID), zap.Error(err))
			return respond(http.StatusInternalServerError, `{"error":"internal server error"}`), nil
		}

		h.logger.Info("Websocket connected",
			zap.String("connection_id", connectionID),
			zap.String("user_id", claims.UserID()),
		)
		return respond(http.StatusOK, ""), nil
	}

	return respond(http.StatusBadRequest, `{"error":"unsupported route"}`), nil
}

// header looks a name up case-insensitively; API Gateway lowercases some headers.
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}
