package aggregates

import (
	"time"

	"ideabox/domain/core/entities"
)

// VoteView is the caller-visible form of an active vote.
type VoteView struct {
	ID        string    `json:"id"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentView is the caller-visible form of an active comment.
type CommentView struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Sentiment    string    `json:"sentiment,omitempty"`
	EvaluationID string    `json:"evaluationId,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicView is the projection returned to callers: active sub-records only,
// no history, status resolved to its display name.
type PublicView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      string        `json:"status"`
	StatusCode  string        `json:"statusCode"`
	VoteCount   int           `json:"voteCount"`
	Votes       []VoteView    `json:"votes"`
	Comments    []CommentView `json:"comments"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	ModifiedBy  string        `json:"modifiedBy"`
	ModifiedAt  time.Time     `json:"modifiedAt"`
	Version     int           `json:"version"`
}

// StatusLabeler resolves a status code to a display name. An empty result
// means the code is unknown.
type StatusLabeler func(code string) string

// View materializes the public projection. Stored state is not modified.
func (i *Idea) View(label StatusLabeler) PublicView {
	view := PublicView{
		ID:          i.id.String(),
		Title:       i.title.String(),
		Description: i.description.String(),
		StatusCode:  i.status.String(),
		VoteCount:   i.voteCount,
		Votes:       make([]VoteView, 0, i.voteCount),
		Comments:    make([]CommentView, 0, len(i.comments)),
		CreatedBy:   i.created.By,
		CreatedAt:   i.created.At,
		ModifiedBy:  i.modified.By,
		ModifiedAt:  i.modified.At,
		Version:     i.version,
	}
	if label != nil {
		view.Status = label(i.status.String())
	}

	for _, v := range i.votes {
		if !v.IsActive() {
			continue
		}
		view.Votes = append(view.Votes, VoteView{ID: v.ID(), CreatedBy: v.Voter(), CreatedAt: v.Created().At})
	}
	for _, c := range i.comments {
		if !c.IsActive() {
			continue
		}
		view.Comments = append(view.Comments, commentView(c))
	}
	return view
}

func commentView(c entities.Comment) CommentView {
	return CommentView{
		ID:           c.ID(),
		Text:         c.Text(),
		Sentiment:    c.Annotation().Sentiment,
		EvaluationID: c.Annotation().EvaluationID,
		CreatedBy:    c.Author(),
		CreatedAt:    c.Created().At,
	}
}

// LabelerFor builds a labeler over a fixed set of choices.
func LabelerFor(choices []entities.StatusChoice) StatusLabeler {
	return func(code string) string {
		return entities.LabelFor(choices, code)
	}
}
