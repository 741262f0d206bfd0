package valueobjects

import (
	"strings"

	pkgerrors "ideabox/pkg/errors"
)

// StatusCode identifies a workflow status, e.g. "S100". It is joined to a
// StatusChoice by value only.
type StatusCode string

// NewStatusCode validates a status code. Codes are trimmed and upper-cased.
func NewStatusCode(raw string) (StatusCode, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", pkgerrors.NewValidationError("status cannot be empty").WithDetail("field", "status")
	}
	if len(v) > 20 {
		return "", pkgerrors.NewValidationError("status exceeds maximum length of 20 characters").WithDetail("field", "status")
	}
	return StatusCode(v), nil
}

// String returns the code.
func (c StatusCode) String() string {
	return string(c)
}
