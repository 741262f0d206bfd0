package dynamodb

import (
	"strings"
	"time"

	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/valueobjects"
)

// Single-table key layout.
const (
	ideaPKPrefix   = "IDEA#"
	ideaSK         = "IDEA"
	activePKValue  = "IDEA"
	choicePK       = "STATUS_CHOICE"
	choiceSKPrefix = "CODE#"

	entityIdea   = "Idea"
	entityChoice = "StatusChoice"
)

// ideaItem is one idea with its votes, comments and journal. ActivePK and
// ActiveSK are set only while the idea is active, which keeps the active
// index sparse.
type ideaItem struct {
	PK          string          `dynamodbav:"PK"`
	SK          string          `dynamodbav:"SK"`
	EntityType  string          `dynamodbav:"EntityType"`
	ID          string          `dynamodbav:"ID"`
	Title       string          `dynamodbav:"Title"`
	TitleFolded string          `dynamodbav:"TitleFolded"`
	Description string          `dynamodbav:"Description"`
	Status      string          `dynamodbav:"Status"`
	VoteCount   int             `dynamodbav:"VoteCount"`
	Voters      []string        `dynamodbav:"Voters,stringset,omitempty"`
	Votes       []voteRecord    `dynamodbav:"Votes"`
	Comments    []commentRecord `dynamodbav:"Comments"`
	History     []historyRecord `dynamodbav:"History"`
	Created     stampRecord     `dynamodbav:"Created"`
	Modified    stampRecord     `dynamodbav:"Modified"`
	Active      bool            `dynamodbav:"Active"`
	Version     int             `dynamodbav:"Version"`
	ActivePK    string          `dynamodbav:"ActivePK,omitempty"`
	ActiveSK    string          `dynamodbav:"ActiveSK,omitempty"`
}

type stampRecord struct {
	By string    `dynamodbav:"By"`
	At time.Time `dynamodbav:"At"`
}

type voteRecord struct {
	ID       string      `dynamodbav:"ID"`
	Voter    string      `dynamodbav:"Voter"`
	Active   bool        `dynamodbav:"Active"`
	Created  stampRecord `dynamodbav:"Created"`
	Modified stampRecord `dynamodbav:"Modified"`
}

type commentRecord struct {
	ID           string      `dynamodbav:"ID"`
	Text         string      `dynamodbav:"Text"`
	Author       string      `dynamodbav:"Author"`
	Sentiment    string      `dynamodbav:"Sentiment,omitempty"`
	EvaluationID string      `dynamodbav:"EvaluationID,omitempty"`
	Active       bool        `dynamodbav:"Active"`
	Created      stampRecord `dynamodbav:"Created"`
	Modified     stampRecord `dynamodbav:"Modified"`
}

type historyRecord struct {
	ID          string    `dynamodbav:"ID"`
	Title       *string   `dynamodbav:"Title"`
	Description *string   `dynamodbav:"Description"`
	Status      *string   `dynamodbav:"Status"`
	Actor       string    `dynamodbav:"Actor"`
	At          time.Time `dynamodbav:"At"`
}

// choiceItem is one status choice. All choices share a partition.
type choiceItem struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	EntityType   string    `dynamodbav:"EntityType"`
	Code         string    `dynamodbav:"Code"`
	DisplayName  string    `dynamodbav:"DisplayName"`
	Field        string    `dynamodbav:"Field"`
	IsSelectable bool      `dynamodbav:"IsSelectable"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt"`
}

func ideaPK(id string) string {
	return ideaPKPrefix + id
}

func toIdeaItem(idea *aggregates.Idea) ideaItem {
	s := idea.Snapshot()
	item := ideaItem{
		PK:          ideaPK(s.ID),
		SK:          ideaSK,
		EntityType:  entityIdea,
		ID:          s.ID,
		Title:       s.Title,
		TitleFolded: valueobjects.FoldTitle(s.Title),
		Description: s.Description,
		Status:      s.Status,
		VoteCount:   idea.VoteCount(),
		Votes:       make([]voteRecord, 0, len(s.Votes)),
		Comments:    make([]commentRecord, 0, len(s.Comments)),
		History:     make([]historyRecord, 0, len(s.History)),
		Created:     stampRecord(s.Created),
		Modified:    stampRecord(s.Modified),
		Active:      s.Active,
		Version:     s.Version,
	}
	if s.Active {
		item.ActivePK = activePKValue
		item.ActiveSK = s.Created.At.UTC().Format(time.RFC3339Nano) + "#" + s.ID
	}

	for _, v := range s.Votes {
		item.Votes = append(item.Votes, voteRecord{
			ID:       v.ID(),
			Voter:    v.Voter(),
			Active:   v.IsActive(),
			Created:  stampRecord(v.Created()),
			Modified: stampRecord(v.Modified()),
		})
		if v.IsActive() {
			item.Voters = append(item.Voters, v.Voter())
		}
	}
	for _, c := range s.Comments {
		a := c.Annotation()
		item.Comments = append(item.Comments, commentRecord{
			ID:           c.ID(),
			Text:         c.Text(),
			Author:       c.Author(),
			Sentiment:    a.Sentiment,
			EvaluationID: a.EvaluationID,
			Active:       c.IsActive(),
			Created:      stampRecord(c.Created()),
			Modified:     stampRecord(c.Modified()),
		})
	}
	for _, h := range s.History {
		item.History = append(item.History, historyRecord{
			ID:          h.ID(),
			Title:       h.Title(),
			Description: h.Description(),
			Status:      h.Status(),
			Actor:       h.Actor(),
			At:          h.At(),
		})
	}
	return item
}

func (item ideaItem) toIdea() (*aggregates.Idea, error) {
	votes := make([]entities.Vote, 0, len(item.Votes))
	for _, v := range item.Votes {
		votes = append(votes, entities.ReconstructVote(v.ID, v.Voter, v.Active,
			entities.Stamp(v.Created), entities.Stamp(v.Modified)))
	}
	comments := make([]entities.Comment, 0, len(item.Comments))
	for _, c := range item.Comments {
		comments = append(comments, entities.ReconstructComment(c.ID, c.Text, c.Author,
			entities.Annotation{Sentiment: c.Sentiment, EvaluationID: c.EvaluationID},
			c.Active, entities.Stamp(c.Created), entities.Stamp(c.Modified)))
	}

	return aggregates.ReconstructIdea(aggregates.Snapshot{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Status:      item.Status,
		Votes:       votes,
		Comments:    comments,
		History:     historyFromRecords(item.History),
		Created:     entities.Stamp(item.Created),
		Modified:    entities.Stamp(item.Modified),
		Active:      item.Active,
		Version:     item.Version,
	})
}

func historyFromRecords(records []historyRecord) []entities.HistoryEntry {
	out := make([]entities.HistoryEntry, 0, len(records))
	for _, h := range records {
		out = append(out, entities.NewHistoryEntry(h.ID, entities.Change{
			Title:       h.Title,
			Description: h.Description,
			Status:      h.Status,
		}, h.Actor, h.At))
	}
	return out
}

func toChoiceItem(c entities.StatusChoice) choiceItem {
	return choiceItem{
		PK:           choicePK,
		SK:           choiceSKPrefix + strings.ToUpper(c.Code),
		EntityType:   entityChoice,
		Code:         c.Code,
		DisplayName:  c.DisplayName,
		Field:        c.Field,
		IsSelectable: c.IsSelectable,
		CreatedAt:    c.CreatedAt,
	}
}

func (item choiceItem) toChoice() entities.StatusChoice {
	return entities.StatusChoice{
		Code:         item.Code,
		DisplayName:  item.DisplayName,
		Field:        item.Field,
		IsSelectable: item.IsSelectable,
		CreatedAt:    item.CreatedAt,
	}
}
