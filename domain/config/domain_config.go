package config

import (
	"fmt"
	"strings"
)

// TitleMatchMode selects how a new title is compared against existing active titles
// when checking for duplicates. Both sides are trimmed and case-folded first.
type TitleMatchMode string

const (
	// TitleMatchExact rejects only titles equal after folding.
	TitleMatchExact TitleMatchMode = "exact"
	// TitleMatchSuffix rejects when an existing title ends with the new one.
	TitleMatchSuffix TitleMatchMode = "suffix"
	// TitleMatchContains rejects when an existing title contains the new one.
	TitleMatchContains TitleMatchMode = "contains"
)

// ParseTitleMatchMode parses a configured match mode, defaulting to exact for an empty value.
func ParseTitleMatchMode(s string) (TitleMatchMode, error) {
	switch m := TitleMatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return TitleMatchExact, nil
	case TitleMatchExact, TitleMatchSuffix, TitleMatchContains:
		return m, nil
	default:
		return "", fmt.Errorf("unknown title match mode %q", s)
	}
}

// DomainConfig holds the configurable business rules of the idea engine
type DomainConfig struct {
	// Field limits
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxCommentLength     int

	// Workflow
	InitialStatus string

	// Duplicate detection
	TitleMatchMode TitleMatchMode

	// Bulk operations
	MaxBulkStatusIDs int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:       30,
		MaxDescriptionLength: 50,
		MaxCommentLength:     500,
		InitialStatus:        "S100",
		TitleMatchMode:       TitleMatchExact,
		MaxBulkStatusIDs:     200,
	}
}

// Validate checks if the configuration is valid. InitialStatus is normalized
// to the canonical upper-case code.
func (c *DomainConfig) Validate() error {
	if c.MaxTitleLength <= 0 || c.MaxDescriptionLength < 0 || c.MaxCommentLength <= 0 {
		return fmt.Errorf("field limits must be positive")
	}
	c.InitialStatus = strings.ToUpper(strings.TrimSpace(c.InitialStatus))
	if c.InitialStatus == "" {
		return fmt.Errorf("initial status is required")
	}
	if _, err := ParseTitleMatchMode(string(c.TitleMatchMode)); err != nil {
		return err
	}
	if c.MaxBulkStatusIDs <= 0 {
		return fmt.Errorf("max bulk status ids must be positive")
	}
	return nil
}
