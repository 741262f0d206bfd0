package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ideabox/domain/config"
	pkgerrors "ideabox/pkg/errors"
)

// Title is the validated, trimmed title of an idea
type Title struct {
	value string
}

// NewTitle creates a title using default limits
func NewTitle(raw string) (Title, error) {
	return NewTitleWithConfig(raw, config.DefaultDomainConfig())
}

// NewTitleWithConfig creates a title validated against cfg
func NewTitleWithConfig(raw string, cfg *config.DomainConfig) (Title, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	v := strings.TrimSpace(raw)
	if v == "" {
		return Title{}, pkgerrors.NewValidationError("title cannot be empty").WithDetail("field", "title")
	}
	if utf8.RuneCountInString(v) > cfg.MaxTitleLength {
		return Title{}, pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxTitleLength),
		).WithDetail("field", "title")
	}
	return Title{value: v}, nil
}

// String returns the title text
func (t Title) String() string {
	return t.value
}

// Folded returns the comparison key used by duplicate detection and search.
func (t Title) Folded() string {
	return FoldTitle(t.value)
}

// Equals reports exact equality, not folded equality
func (t Title) Equals(other Title) bool {
	return t.value == other.value
}

// Description is the optional, validated description of an idea.
// The zero value is an absent description.
type Description struct {
	value string
}

// NewDescription creates a description using default limits
func NewDescription(raw string) (Description, error) {
	return NewDescriptionWithConfig(raw, config.DefaultDomainConfig())
}

// NewDescriptionWithConfig creates a description validated against cfg
func NewDescriptionWithConfig(raw string, cfg *config.DomainConfig) (Description, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	v := strings.TrimSpace(raw)
	if utf8.RuneCountInString(v) > cfg.MaxDescriptionLength {
		return Description{}, pkgerrors.NewValidationError(
			fmt.Sprintf("description exceeds maximum length of %d characters", cfg.MaxDescriptionLength),
		).WithDetail("field", "description")
	}
	return Description{value: v}, nil
}

// String returns the description text, empty when absent
func (d Description) String() string {
	return d.value
}

// IsEmpty checks if the description is absent
func (d Description) IsEmpty() bool {
	return d.value == ""
}

// FoldTitle trims and case-folds a title for comparison.
func FoldTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TitleMatches reports whether existing collides with candidate under mode.
// Both arguments are folded before comparison; an empty candidate never matches.
func TitleMatches(mode config.TitleMatchMode, existing, candidate string) bool {
	e, c := FoldTitle(existing), FoldTitle(candidate)
	if c == "" {
		return false
	}

	switch mode {
	case config.TitleMatchSuffix:
		return strings.HasSuffix(e, c)
	case config.TitleMatchContains:
		return strings.Contains(e, c)
	default:
		return e == c
	}
}
