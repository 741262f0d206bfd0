package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Error codes carried by AppError.Code. Clients branch on these, not on messages.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotPermitted         = "NOT_PERMITTED"
	CodeStorageFailure       = "STORAGE_FAILURE"
	CodeIdeaNotFound         = "IDEA_NOT_FOUND"
	CodeCommentNotFound      = "COMMENT_NOT_FOUND"
	CodeVoteNotFound         = "VOTE_NOT_FOUND"
	CodeStatusChoiceNotFound = "STATUS_CHOICE_NOT_FOUND"
	CodeAlreadyVoted         = "ALREADY_VOTED"
	CodeDuplicateTitle       = "DUPLICATE_TITLE"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeStatusCodeTaken      = "STATUS_CODE_TAKEN"
	CodeLockNotAcquired      = "LOCK_NOT_ACQUIRED"
)

// NewIdeaNotFoundError reports an id that does not resolve to an active idea.
func NewIdeaNotFoundError(id string) *AppError {
	return NewNotFoundError("idea").WithCode(CodeIdeaNotFound).WithDetail("idea_id", id)
}

// NewCommentNotFoundError reports a comment id with no active comment behind it.
func NewCommentNotFoundError(ideaID, commentID string) *AppError {
	return NewNotFoundError("comment").
		WithCode(CodeCommentNotFound).
		WithDetails(map[string]interface{}{"idea_id": ideaID, "comment_id": commentID})
}

// NewVoteNotFoundError reports that the voter holds no active vote on the idea.
func NewVoteNotFoundError(ideaID, voter string) *AppError {
	return NewNotFoundError("vote").
		WithCode(CodeVoteNotFound).
		WithDetails(map[string]interface{}{"idea_id": ideaID, "voter": voter})
}

// NewStatusChoiceNotFoundError reports an unknown status code.
func NewStatusChoiceNotFoundError(code string) *AppError {
	return NewNotFoundError("status choice").WithCode(CodeStatusChoiceNotFound).WithDetail("code", code)
}

// NewAlreadyVotedError reports a second active vote by the same voter.
func NewAlreadyVotedError(ideaID, voter string) *AppError {
	return NewConflictError("actor has already voted for this idea").
		WithCode(CodeAlreadyVoted).
		WithDetails(map[string]interface{}{"idea_id": ideaID, "voter": voter})
}

// NewDuplicateTitleError reports a title colliding with an active idea.
func NewDuplicateTitleError(title string) *AppError {
	return NewConflictError(fmt.Sprintf("an idea titled %q already exists", title)).
		WithCode(CodeDuplicateTitle).
		WithDetail("title", title)
}

// NewVersionConflictError reports a save against a stale aggregate version.
func NewVersionConflictError(aggregateID string, version int) *AppError {
	return NewConflictError("the idea was modified concurrently; reload and retry").
		WithCode(CodeVersionConflict).
		WithDetails(map[string]interface{}{"idea_id": aggregateID, "version": version})
}

// NewStatusCodeTakenError reports a status choice code that already exists.
func NewStatusCodeTakenError(code string) *AppError {
	return NewConflictError(fmt.Sprintf("status code %q already exists", code)).
		WithCode(CodeStatusCodeTaken).
		WithDetail("code", code)
}

// NewLockNotAcquiredError reports a lock held by a concurrent request.
func NewLockNotAcquiredError(key string) *AppError {
	return NewConflictError("resource is locked by a concurrent request").
		WithCode(CodeLockNotAcquired).
		WithDetail("lock_key", key)
}

// IsAlreadyVoted checks for a duplicate-vote failure
func IsAlreadyVoted(err error) bool {
	return HasCode(err, CodeAlreadyVoted)
}

// IsVoteNotFound checks for a missing-vote failure
func IsVoteNotFound(err error) bool {
	return HasCode(err, CodeVoteNotFound)
}

// IsDuplicateTitle checks for a title uniqueness failure
func IsDuplicateTitle(err error) bool {
	return HasCode(err, CodeDuplicateTitle)
}

// IsVersionConflict checks for an optimistic-lock failure
func IsVersionConflict(err error) bool {
	return HasCode(err, CodeVersionConflict)
}

// ValidationErrors aggregates field-level validation failures
type ValidationErrors struct {
	fields map[string][]string
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add records a failure for a field
func (v *ValidationErrors) Add(field string, message string) {
	v.fields[field] = append(v.fields[field], message)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.fields) > 0
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	out := make(map[string][]string, len(v.fields))
	for k, msgs := range v.fields {
		out[k] = append([]string(nil), msgs...)
	}
	return out
}

// AsError converts the collection to a ValidationFailed AppError, or nil when empty.
func (v *ValidationErrors) AsError() error {
	if !v.HasErrors() {
		return nil
	}

	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	details := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.fields[k], ", ")))
		details[k] = v.fields[k]
	}

	return NewValidationError("validation failed: " + strings.Join(parts, "; ")).WithDetails(details)
}
