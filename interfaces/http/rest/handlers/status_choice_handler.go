package handlers

import (
	"net/http"
	"strconv"

	"ideabox/application/commands"
	"ideabox/application/commands/bus"
	"ideabox/application/queries"
	querybus "ideabox/application/queries/bus"
	"ideabox/pkg/common"
	pkgerrors "ideabox/pkg/errors"
)

// StatusChoiceHandler serves the status choice catalogue
type StatusChoiceHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
}

func NewStatusChoiceHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler) *StatusChoiceHandler {
	return &StatusChoiceHandler{commandBus: commandBus, queryBus: queryBus, errors: errs}
}

// CreateStatusChoiceRequest is the body of POST /status-choices
type CreateStatusChoiceRequest struct {
	Code         string `json:"code" validate:"required"`
	DisplayName  string `json:"displayName" validate:"required"`
	Field        string `json:"field"`
	IsSelectable bool   `json:"isSelectable"`
}

// List handles GET /status-choices
func (h *StatusChoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	selectable, _ := strconv.ParseBool(r.URL.Query().Get("selectable"))

	result, err := h.queryBus.Ask(r.Context(), queries.ListStatusChoicesQuery{SelectableOnly: selectable})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /status-choices
func (h *StatusChoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStatusChoiceRequest
	if !decodeAndValidate(w, r, &req, h.errors) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateStatusChoiceCommand{
		Actor:        common.ActorFrom(r.Context()),
		Code:         req.Code,
		DisplayName:  req.DisplayName,
		Field:        req.Field,
		IsSelectable: req.IsSelectable,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, result)
}
