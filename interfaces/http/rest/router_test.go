package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ideabox/application/commands/bus"
	commandhandlers "ideabox/application/commands/handlers"
	"ideabox/application/ports"
	querybus "ideabox/application/queries/bus"
	queryhandlers "ideabox/application/queries/handlers"
	"ideabox/application/services"
	"ideabox/domain/core/entities"
	"ideabox/infrastructure/config"
	"ideabox/infrastructure/persistence/memory"
	"ideabox/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler   http.Handler
	validator *auth.JWTValidator
}

func newTestServer(t *testing.T, configure ...func(*Router)) *testServer {
	t.Helper()

	clock := ports.SystemClock{}
	choices := services.NewStatusChoiceService(
		memory.NewStatusChoiceRepository(entities.DefaultStatusChoices(clock.Now())...),
		nil, 0, clock, zap.NewNop(),
	)
	ideas := services.NewIdeaService(memory.NewIdeaRepository(), choices, memory.NewTitleLock(),
		nil, nil, nil, clock, nil, nil, zap.NewNop())

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandhandlers.NewIdeaCommandHandlers(ideas, choices).Register(commandBus))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewIdeaQueryHandlers(ideas, choices).Register(queryBus))

	validator, err := auth.NewJWTValidator("test-secret", "ideabox")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.RateLimit.RequestsPerMinute = 60

	router := NewRouter(commandBus, queryBus, validator, cfg, zap.NewNop())
	for _, c := range configure {
		c(router)
	}
	return &testServer{handler: router.Setup(), validator: validator}
}

func (s *testServer) token(t *testing.T, user string, roles ...string) string {
	t.Helper()
	token, err := s.validator.Sign(user, roles, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			payload.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&payload).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	d, ok := decodeBody(t, w)["data"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return d
}

func (s *testServer) createIdea(t *testing.T, token, title string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/ideas", token, map[string]string{"title": title, "description": "Fridays"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data(t, w)["id"].(string)
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, func(r *Router) {
		r.WithReadinessCheck("store", func(context.Context) error { return nil })
		r.WithReadinessCheck("cache", func(context.Context) error { return errors.New("connection refused") })
	})

	health := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, health.Code)

	ready := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	body := decodeBody(t, ready)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]interface{}{"store": "ok", "cache": "unavailable"}, body["checks"])
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	other, err := auth.NewJWTValidator("other-secret", "ideabox")
	require.NoError(t, err)
	forged, err := other.Sign("alice", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"wrong signature", forged, http.StatusUnauthorized},
		{"valid token", s.token(t, "alice"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/ideas", tt.token, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIdeaLifecycle(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	alice := s.token(t, "alice")
	bob := s.token(t, "bob")
	id := s.createIdea(t, alice, "Team Lunch")

	// Act + Assert: duplicate title, case and trailing space folded
	dup := s.do(t, http.MethodPost, "/api/v1/ideas", bob, map[string]string{"title": "team lunch "})
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "DUPLICATE_TITLE", decodeBody(t, dup)["code"])

	get := s.do(t, http.MethodGet, "/api/v1/ideas/"+id, bob, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "Team Lunch", data(t, get)["title"])
	assert.Equal(t, "Submitted", data(t, get)["status"])

	vote := s.do(t, http.MethodPatch, "/api/v1/ideas/"+id+"/vote", bob, nil)
	require.Equal(t, http.StatusOK, vote.Code)
	assert.Equal(t, float64(1), data(t, vote)["voteCount"])

	again := s.do(t, http.MethodPatch, "/api/v1/ideas/"+id+"/vote", bob, nil)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, "ALREADY_VOTED", decodeBody(t, again)["code"])

	unvote := s.do(t, http.MethodPatch, "/api/v1/ideas/"+id+"/unvote", bob, nil)
	require.Equal(t, http.StatusOK, unvote.Code)
	assert.Equal(t, float64(0), data(t, unvote)["voteCount"])

	forbidden := s.do(t, http.MethodPatch, "/api/v1/ideas/"+id, bob, map[string]string{"title": "Bob's lunch"})
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	update := s.do(t, http.MethodPatch, "/api/v1/ideas/"+id, alice, map[string]string{"description": "Every Friday"})
	require.Equal(t, http.StatusOK, update.Code)
	assert.Equal(t, "Every Friday", data(t, update)["description"])

	removed := s.do(t, http.MethodDelete, "/api/v1/ideas/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, removed.Code)

	gone := s.do(t, http.MethodGet, "/api/v1/ideas/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice")
	bob := s.token(t, "bob")
	id := s.createIdea(t, alice, "Bike racks")

	added := s.do(t, http.MethodPost, "/api/v1/ideas/"+id+"/comments", bob, map[string]string{"text": "Yes please"})
	require.Equal(t, http.StatusCreated, added.Code)
	comments := data(t, added)["comments"].([]interface{})
	require.Len(t, comments, 1)
	commentID := comments[0].(map[string]interface{})["id"].(string)

	byOther := s.do(t, http.MethodDelete, "/api/v1/ideas/"+id+"/comments/"+commentID, alice, nil)
	assert.Equal(t, http.StatusForbidden, byOther.Code)

	byAuthor := s.do(t, http.MethodDelete, "/api/v1/ideas/"+id+"/comments/"+commentID, bob, nil)
	assert.Equal(t, http.StatusNoContent, byAuthor.Code)

	empty := s.do(t, http.MethodPost, "/api/v1/ideas/"+id+"/comments", bob, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestListIdeas(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice")
	bob := s.token(t, "bob")
	lunch := s.createIdea(t, alice, "Team lunch")
	s.createIdea(t, alice, "Bike racks")
	s.createIdea(t, alice, "Standing desks")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/v1/ideas/"+lunch+"/vote", bob, nil).Code)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantMore  bool
	}{
		{"all", "", 3, false},
		{"search", "?search=rack", 1, false},
		{"favourites", "?favourites=true", 1, false},
		{"paged", "?limit=2", 2, true},
		{"last page exactly full", "?limit=1&offset=2", 1, false},
		{"offset past end", "?limit=2&offset=4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/ideas"+tt.query, bob, nil)
			require.Equal(t, http.StatusOK, w.Code)

			body := decodeBody(t, w)
			assert.Len(t, body["data"], tt.wantCount)
			pagination := body["meta"].(map[string]interface{})["pagination"].(map[string]interface{})
			assert.Equal(t, tt.wantMore, pagination["has_more"])
		})
	}
}

func TestBulkStatusAndHistory(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice")
	bob := s.token(t, "bob")
	admin := s.token(t, "root", "admin")
	a := s.createIdea(t, alice, "Team lunch")
	b := s.createIdea(t, alice, "Bike racks")
	require.Equal(t, http.StatusOK,
		s.do(t, http.MethodPatch, "/api/v1/ideas/"+a, alice, map[string]string{"status": "S200"}).Code)

	bulk := s.do(t, http.MethodPost, "/api/v1/ideas/status", admin, map[string]interface{}{
		"ids":    []string{a, b},
		"status": "S200",
	})
	require.Equal(t, http.StatusOK, bulk.Code, bulk.Body.String())
	assert.Equal(t, float64(1), data(t, bulk)["modifiedCount"])

	denied := s.do(t, http.MethodGet, "/api/v1/ideas/"+b+"/history", bob, nil)
	assert.Equal(t, http.StatusForbidden, denied.Code)

	owner := s.do(t, http.MethodGet, "/api/v1/ideas/"+b+"/history", alice, nil)
	require.Equal(t, http.StatusOK, owner.Code)
	assert.Len(t, data(t, owner)["entries"], 2)

	badAt := s.do(t, http.MethodGet, "/api/v1/ideas/"+b+"/history?at=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, badAt.Code)
}

func TestStatusChoices(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]interface{}{"code": "s600", "displayName": "Parked", "isSelectable": false}

	denied := s.do(t, http.MethodPost, "/api/v1/status-choices", s.token(t, "alice"), payload)
	assert.Equal(t, http.StatusForbidden, denied.Code)

	supervisor := s.token(t, "sam", "supervisor")
	created := s.do(t, http.MethodPost, "/api/v1/status-choices", supervisor, payload)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Equal(t, "S600", data(t, created)["code"])

	taken := s.do(t, http.MethodPost, "/api/v1/status-choices", supervisor, payload)
	assert.Equal(t, http.StatusConflict, taken.Code)

	all := s.do(t, http.MethodGet, "/api/v1/status-choices", supervisor, nil)
	assert.Len(t, decodeBody(t, all)["data"], 6)
	selectable := s.do(t, http.MethodGet, "/api/v1/status-choices?selectable=true", supervisor, nil)
	assert.Len(t, decodeBody(t, selectable)["data"], 5)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/ideas", s.token(t, "alice"), `{"title":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", decodeBody(t, w)["type"])
}

func TestRateLimitOnMutations(t *testing.T) {
	limiter := auth.NewTokenBucketLimiter(1, 1)
	t.Cleanup(limiter.Close)
	s := newTestServer(t, func(r *Router) { r.WithRateLimiter(limiter) })
	alice := s.token(t, "alice")

	s.createIdea(t, alice, "Team lunch")
	second := s.do(t, http.MethodPost, "/api/v1/ideas", alice, map[string]string{"title": "Bike racks"})
	read := s.do(t, http.MethodGet, "/api/v1/ideas", alice, nil)

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, read.Code)
}
