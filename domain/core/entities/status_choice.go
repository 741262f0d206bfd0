package entities

import (
	"strings"
	"time"

	pkgerrors "ideabox/pkg/errors"
)

// StatusField is the domain field status choices belong to.
const StatusField = "status"

// StatusChoice maps a status code to a display name. It has its own lifecycle
// and is joined to ideas by code only.
type StatusChoice struct {
	Code         string    `json:"code"`
	DisplayName  string    `json:"displayName"`
	Field        string    `json:"field"`
	IsSelectable bool      `json:"isSelectable"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewStatusChoice validates and creates a status choice.
func NewStatusChoice(code, displayName, field string, selectable bool, at time.Time) (StatusChoice, error) {
	verrs := pkgerrors.NewValidationErrors()
	code = strings.ToUpper(strings.TrimSpace(code))
	displayName = strings.TrimSpace(displayName)
	field = strings.TrimSpace(field)
	if field == "" {
		field = StatusField
	}

	if code == "" {
		verrs.Add("code", "is required")
	}
	if len(code) > 20 {
		verrs.Add("code", "must be at most 20 characters")
	}
	if displayName == "" {
		verrs.Add("displayName", "is required")
	}
	if err := verrs.AsError(); err != nil {
		return StatusChoice{}, err
	}

	return StatusChoice{
		Code:         code,
		DisplayName:  displayName,
		Field:        field,
		IsSelectable: selectable,
		CreatedAt:    at.UTC(),
	}, nil
}

// DefaultStatusChoices is the seed workflow.
func DefaultStatusChoices(at time.Time) []StatusChoice {
	seed := []struct{ code, name string }{
		{"S100", "Submitted"},
		{"S200", "Under review"},
		{"S300", "Approved"},
		{"S400", "Rejected"},
		{"S500", "Implemented"},
	}
	out := make([]StatusChoice, 0, len(seed))
	for _, s := range seed {
		out = append(out, StatusChoice{
			Code:         s.code,
			DisplayName:  s.name,
			Field:        StatusField,
			IsSelectable: true,
			CreatedAt:    at.UTC(),
		})
	}
	return out
}

// LabelFor resolves code to the display name of the first matching choice.
// An unknown code yields an empty label.
func LabelFor(choices []StatusChoice, code string) string {
	for _, c := range choices {
		if c.Code == code {
			return c.DisplayName
		}
	}
	return ""
}
