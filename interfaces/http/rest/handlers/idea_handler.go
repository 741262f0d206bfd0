// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"ideabox/application/commands"
	"ideabox/application/commands/bus"
	"ideabox/application/queries"
	querybus "ideabox/application/queries/bus"
	"ideabox/application/services"
	domainconfig "ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/listing"
	"ideabox/pkg/common"
	pkgerrors "ideabox/pkg/errors"
	"ideabox/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// IdeaHandler handles idea-related HTTP requests
type IdeaHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *IdeaHandler {
	return &IdeaHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// CreateIdeaRequest is the body of POST /ideas
type CreateIdeaRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// UpdateIdeaRequest is the body of PATCH /ideas/{ideaID}. Absent fields are left unchanged.
type UpdateIdeaRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// AddCommentRequest is the body of POST /ideas/{ideaID}/comments
type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// BulkStatusRequest is the body of POST /ideas/status
type BulkStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Status string   `json:"status" validate:"required"`
}

// ListIdeas handles GET /ideas
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	page := common.ExtractPaginationParams(r)

	query := queries.ListIdeasQuery{
		Search: strings.TrimSpace(params.Get("search")),
		Sort:   listing.ParseSortOrder(params.Get("sort")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if favourites, _ := strconv.ParseBool(params.Get("favourites")); favourites {
		query.FavouritesOf = common.ActorFrom(r.Context()).ID
	}
	if match := params.Get("match"); match != "" {
		mode, err := domainconfig.ParseTitleMatchMode(match)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
			return
		}
		query.SearchMode = mode
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	list, _ := result.(services.IdeaPage)
	views := list.Ideas
	if views == nil {
		views = []aggregates.PublicView{}
	}
	common.RespondWithMeta(w, http.StatusOK, views, &common.MetaInfo{
		RequestID:  requestID(r),
		Pagination: common.BuildPaginationMeta(page, len(views), list.Total),
	})
}

// CreateIdea handles POST /ideas
func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req CreateIdeaRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.send(w, r, http.StatusCreated, commands.CreateIdeaCommand{
		Actor:       common.ActorFrom(r.Context()),
		Title:       req.Title,
		Description: req.Description,
	})
}

// GetIdea handles GET /ideas/{ideaID}
func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetIdeaQuery{IdeaID: chi.URLParam(r, "ideaID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// UpdateIdea handles PATCH /ideas/{ideaID}
func (h *IdeaHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	var req UpdateIdeaRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.send(w, r, http.StatusOK, commands.UpdateIdeaCommand{
		Actor:       common.ActorFrom(r.Context()),
		IdeaID:      chi.URLParam(r, "ideaID"),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
}

// RemoveIdea handles DELETE /ideas/{ideaID}
func (h *IdeaHandler) RemoveIdea(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusNoContent, commands.RemoveIdeaCommand{
		Actor:  common.ActorFrom(r.Context()),
		IdeaID: chi.URLParam(r, "ideaID"),
	})
}

// Vote handles PATCH /ideas/{ideaID}/vote
func (h *IdeaHandler) Vote(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.AddVoteCommand{
		Actor:  common.ActorFrom(r.Context()),
		IdeaID: chi.URLParam(r, "ideaID"),
	})
}

// Unvote handles PATCH /ideas/{ideaID}/unvote
func (h *IdeaHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.RemoveVoteCommand{
		Actor:  common.ActorFrom(r.Context()),
		IdeaID: chi.URLParam(r, "ideaID"),
	})
}

// AddComment handles POST /ideas/{ideaID}/comments
func (h *IdeaHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.send(w, r, http.StatusCreated, commands.AddCommentCommand{
		Actor:  common.ActorFrom(r.Context()),
		IdeaID: chi.URLParam(r, "ideaID"),
		Text:   req.Text,
	})
}

// RemoveComment handles DELETE /ideas/{ideaID}/comments/{commentID}
func (h *IdeaHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusNoContent, commands.RemoveCommentCommand{
		Actor:     common.ActorFrom(r.Context()),
		IdeaID:    chi.URLParam(r, "ideaID"),
		CommentID: chi.URLParam(r, "commentID"),
	})
}

// History handles GET /ideas/{ideaID}/history
func (h *IdeaHandler) History(w http.ResponseWriter, r *http.Request) {
	query := queries.GetIdeaHistoryQuery{
		Actor:  common.ActorFrom(r.Context()),
		IdeaID: chi.URLParam(r, "ideaID"),
	}
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := utils.ParseRFC3339(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("at must be an RFC 3339 timestamp"))
			return
		}
		query.At = &at
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// BulkStatusUpdate handles POST /ideas/status
func (h *IdeaHandler) BulkStatusUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.send(w, r, http.StatusOK, commands.BulkStatusUpdateCommand{
		Actor:  common.ActorFrom(r.Context()),
		IDs:    req.IDs,
		Status: req.Status,
	})
}

// send dispatches cmd and writes its result with status.
func (h *IdeaHandler) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	common.RespondJSON(w, status, result)
}

func (h *IdeaHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeAndValidate(w, r, v, h.errors)
}

// decodeAndValidate parses a JSON body and checks its validate tags. It
// writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}, errs *pkgerrors.ErrorHandler) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		errs.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		errs.Handle(w, r, err)
		return false
	}
	return true
}

func requestID(r *http.Request) string {
	id, _ := common.GetRequestID(r.Context())
	return id
}
