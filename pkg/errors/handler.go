package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler renders errors as JSON and logs them at a level matching
// their status. In debug mode causes and stack traces are exposed.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err to w. Errors that are not AppErrors become INTERNAL,
// except context deadlines which are reported as UNAVAILABLE.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := h.classify(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{
		Error:     true,
		Type:      string(appErr.Type),
		Message:   appErr.Message,
		Code:      appErr.Code,
		Details:   appErr.Details,
		RequestID: requestIDFrom(r),
		TraceID:   r.Header.Get("X-Amzn-Trace-Id"),
	}
	if h.debug {
		resp.Details = withDebug(resp.Details, appErr)
	}

	h.log(r, appErr, status, resp.RequestID)
	h.write(w, status, resp)
}

// NotFound renders unknown routes in the API error format.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Handle(w, r, NewNotFoundError("route"))
}

// MethodNotAllowed renders a known route hit with the wrong method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	appErr := newError(ErrorTypeValidation, "METHOD_NOT_ALLOWED",
		fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
	h.Handle(w, r, appErr)
}

// Middleware recovers panics into INTERNAL responses.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) classify(err error) *AppError {
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewUnavailableError("request deadline").WithCause(err)
	}
	appErr := NewInternalError("An internal error occurred").WithCause(err)
	if h.debug {
		appErr.Message = err.Error()
	}
	return appErr
}

func withDebug(details map[string]interface{}, appErr *AppError) map[string]interface{} {
	if appErr.StackTrace == "" && appErr.Cause == nil {
		return details
	}
	out := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		out[k] = v
	}
	if appErr.Cause != nil {
		out["cause"] = appErr.Cause.Error()
	}
	if appErr.StackTrace != "" {
		out["stack_trace"] = appErr.StackTrace
	}
	return out
}

func (h *ErrorHandler) log(r *http.Request, err *AppError, status int, requestID string) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestID),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.NamedError("cause", err.Cause))
	}
	if len(err.Details) > 0 {
		fields = append(fields, zap.Any("details", err.Details))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status == http.StatusNotFound:
		h.logger.Debug(err.Message, fields...)
	default:
		h.logger.Warn(err.Message, fields...)
	}
}

func (h *ErrorHandler) write(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func requestIDFrom(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
