package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/valueobjects"
	"ideabox/pkg/errors"
)

// IdeaValidator turns raw input into validated value objects, collecting every
// field failure into one ValidationFailed error.
type IdeaValidator struct {
	cfg *config.DomainConfig
}

// NewIdeaValidator creates a validator bound to cfg
func NewIdeaValidator(cfg *config.DomainConfig) *IdeaValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &IdeaValidator{cfg: cfg}
}

// NewIdeaInput validates the fields of a submission.
func (v *IdeaValidator) NewIdeaInput(title, description string) (valueobjects.Title, valueobjects.Description, error) {
	verrs := errors.NewValidationErrors()

	t, err := valueobjects.NewTitleWithConfig(title, v.cfg)
	if err != nil {
		verrs.Add("title", messageOf(err))
	}
	d, err := valueobjects.NewDescriptionWithConfig(description, v.cfg)
	if err != nil {
		verrs.Add("description", messageOf(err))
	}

	if err := verrs.AsError(); err != nil {
		return valueobjects.Title{}, valueobjects.Description{}, err
	}
	return t, d, nil
}

// PatchInput validates the supplied fields of an update. Nil inputs stay absent.
func (v *IdeaValidator) PatchInput(title, description, status *string) (aggregates.Patch, error) {
	verrs := errors.NewValidationErrors()
	var p aggregates.Patch

	if title != nil {
		t, err := valueobjects.NewTitleWithConfig(*title, v.cfg)
		if err != nil {
			verrs.Add("title", messageOf(err))
		} else {
			p.Title = &t
		}
	}
	if description != nil {
		d, err := valueobjects.NewDescriptionWithConfig(*description, v.cfg)
		if err != nil {
			verrs.Add("description", messageOf(err))
		} else {
			p.Description = &d
		}
	}
	if status != nil {
		s, err := valueobjects.NewStatusCode(*status)
		if err != nil {
			verrs.Add("status", messageOf(err))
		} else {
			p.Status = &s
		}
	}

	if err := verrs.AsError(); err != nil {
		return aggregates.Patch{}, err
	}
	return p, nil
}

// CommentText validates comment text and returns it trimmed.
func (v *IdeaValidator) CommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	verrs := errors.NewValidationErrors()

	switch {
	case text == "":
		verrs.Add("text", "cannot be empty")
	case utf8.RuneCountInString(text) > v.cfg.MaxCommentLength:
		verrs.Add("text", fmt.Sprintf("exceeds maximum length of %d characters", v.cfg.MaxCommentLength))
	case containsMarkup(text):
		verrs.Add("text", "contains potentially malicious content")
	}

	if err := verrs.AsError(); err != nil {
		return "", err
	}
	return text, nil
}

// StatusIDs validates the size of a bulk status id list and drops duplicates.
// Malformed ids cannot name an idea, so they are skipped like unknown ones.
func (v *IdeaValidator) StatusIDs(ids []string) ([]valueobjects.IdeaID, error) {
	verrs := errors.NewValidationErrors()
	if len(ids) == 0 {
		verrs.Add("ids", "at least one id is required")
	}
	if len(ids) > v.cfg.MaxBulkStatusIDs {
		verrs.Add("ids", fmt.Sprintf("at most %d ids are allowed", v.cfg.MaxBulkStatusIDs))
	}

	seen := make(map[string]bool, len(ids))
	out := make([]valueobjects.IdeaID, 0, len(ids))
	for _, raw := range ids {
		id, err := valueobjects.NewIdeaIDFromString(strings.TrimSpace(raw))
		if err != nil || seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		out = append(out, id)
	}

	if err := verrs.AsError(); err != nil {
		return nil, err
	}
	return out, nil
}

func containsMarkup(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<script") || strings.Contains(lower, "javascript:")
}

func messageOf(err error) string {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
