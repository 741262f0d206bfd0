package postgres

import (
	"context"
	"strings"
	"time"

	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var ideaColumns = []string{
	"id::text", "title", "description", "status",
	"created_by", "created_at", "modified_by", "modified_at", "active", "version",
}

// IdeaRepository stores ideas in relational form: one row per idea plus
// child rows for votes, comments and the journal. The ideas.version column
// guards every write.
type IdeaRepository struct {
	pool *pgxpool.Pool
}

func NewIdeaRepository(pool *pgxpool.Pool) *IdeaRepository {
	return &IdeaRepository{pool: pool}
}

func (r *IdeaRepository) Load(ctx context.Context, id valueobjects.IdeaID) (*aggregates.Idea, error) {
	ideas, err := r.loadWhere(ctx, squirrel.Expr("id = ?::uuid", id.String()))
	if err != nil {
		return nil, err
	}
	if len(ideas) == 0 {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}
	return ideas[0], nil
}

// Save writes the idea and its children in one transaction. The root row
// is inserted for a new idea and otherwise updated only at the persisted
// version; zero affected rows is a version conflict.
func (r *IdeaRepository) Save(ctx context.Context, idea *aggregates.Idea) error {
	s := idea.Snapshot()
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := writeRoot(ctx, tx, idea, s); err != nil {
			return err
		}
		if err := upsertVotes(ctx, tx, s); err != nil {
			return err
		}
		if err := upsertComments(ctx, tx, s); err != nil {
			return err
		}
		return appendHistory(ctx, tx, s)
	})
	return mapError("save idea", err)
}

func writeRoot(ctx context.Context, tx pgx.Tx, idea *aggregates.Idea, s aggregates.Snapshot) error {
	var stmt squirrel.Sqlizer
	if idea.IsNew() {
		stmt = psql.Insert("ideas").
			Columns("id", "title", "title_folded", "description", "status", "vote_count",
				"created_by", "created_at", "modified_by", "modified_at", "active", "version").
			Values(s.ID, s.Title, valueobjects.FoldTitle(s.Title), s.Description, s.Status, idea.VoteCount(),
				s.Created.By, s.Created.At, s.Modified.By, s.Modified.At, s.Active, s.Version).
			Suffix("ON CONFLICT (id) DO NOTHING")
	} else {
		stmt = psql.Update("ideas").
			SetMap(map[string]interface{}{
				"title":        s.Title,
				"title_folded": valueobjects.FoldTitle(s.Title),
				"description":  s.Description,
				"status":       s.Status,
				"vote_count":   idea.VoteCount(),
				"modified_by":  s.Modified.By,
				"modified_at":  s.Modified.At,
				"active":       s.Active,
				"version":      s.Version,
			}).
			Where(squirrel.Expr("id = ?::uuid", s.ID)).
			Where(squirrel.Eq{"version": idea.PersistedVersion()})
	}

	sql, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.NewVersionConflictError(s.ID, idea.PersistedVersion())
	}
	return nil
}

func upsertVotes(ctx context.Context, tx pgx.Tx, s aggregates.Snapshot) error {
	if len(s.Votes) == 0 {
		return nil
	}
	stmt := psql.Insert("idea_votes").
		Columns("id", "idea_id", "position", "voter", "active", "created_by", "created_at", "modified_by", "modified_at")
	for i, v := range s.Votes {
		stmt = stmt.Values(v.ID(), s.ID, i, v.Voter(), v.IsActive(),
			v.Created().By, v.Created().At, v.Modified().By, v.Modified().At)
	}
	stmt = stmt.Suffix("ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, " +
		"modified_by = EXCLUDED.modified_by, modified_at = EXCLUDED.modified_at")
	return execStmt(ctx, tx, stmt)
}

func upsertComments(ctx context.Context, tx pgx.Tx, s aggregates.Snapshot) error {
	if len(s.Comments) == 0 {
		return nil
	}
	stmt := psql.Insert("idea_comments").
		Columns("id", "idea_id", "position", "body", "author", "sentiment", "evaluation_id", "active",
			"created_by", "created_at", "modified_by", "modified_at")
	for i, c := range s.Comments {
		a := c.Annotation()
		stmt = stmt.Values(c.ID(), s.ID, i, c.Text(), c.Author(), a.Sentiment, a.EvaluationID, c.IsActive(),
			c.Created().By, c.Created().At, c.Modified().By, c.Modified().At)
	}
	stmt = stmt.Suffix("ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, " +
		"sentiment = EXCLUDED.sentiment, evaluation_id = EXCLUDED.evaluation_id, " +
		"modified_by = EXCLUDED.modified_by, modified_at = EXCLUDED.modified_at")
	return execStmt(ctx, tx, stmt)
}

func appendHistory(ctx context.Context, tx pgx.Tx, s aggregates.Snapshot) error {
	if len(s.History) == 0 {
		return nil
	}
	stmt := psql.Insert("idea_history").
		Columns("id", "idea_id", "position", "title", "description", "status", "actor", "at")
	for i, h := range s.History {
		stmt = stmt.Values(h.ID(), s.ID, i, h.Title(), h.Description(), h.Status(), h.Actor(), h.At())
	}
	stmt = stmt.Suffix("ON CONFLICT (id) DO NOTHING")
	return execStmt(ctx, tx, stmt)
}

func execStmt(ctx context.Context, q querier, stmt squirrel.Sqlizer) error {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

// LoadMany skips unknown ids and keeps the order of ids.
func (r *IdeaRepository) LoadMany(ctx context.Context, ids []valueobjects.IdeaID) ([]*aggregates.Idea, error) {
	if len(ids) == 0 {
		return []*aggregates.Idea{}, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	ideas, err := r.loadWhere(ctx, squirrel.Expr("id = ANY(?::uuid[])", keys))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*aggregates.Idea, len(ideas))
	for _, idea := range ideas {
		byID[idea.ID().String()] = idea
	}

	out := make([]*aggregates.Idea, 0, len(ideas))
	for _, key := range keys {
		if idea, ok := byID[key]; ok {
			out = append(out, idea)
			delete(byID, key)
		}
	}
	return out, nil
}

// ListActive pushes the favourites filter and the title search into SQL;
// listing.Apply ranks the result.
func (r *IdeaRepository) ListActive(ctx context.Context, filter listing.Filter, order listing.SortOrder) ([]*aggregates.Idea, error) {
	where := squirrel.And{squirrel.Eq{"active": true}}
	if filter.IsFavourites() {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM idea_votes v WHERE v.idea_id = ideas.id AND v.voter = ? AND v.active)",
			filter.FavouritesOf))
	}
	if s := filter.NormalizedSearch(); s != "" {
		pattern := "%" + escapeLike(s)
		if filter.SearchMode != config.TitleMatchSuffix {
			pattern += "%"
		}
		where = append(where, squirrel.Like{"title_folded": pattern})
	}

	ideas, err := r.loadWhere(ctx, where)
	if err != nil {
		return nil, err
	}
	return listing.Apply(ideas, filter, order), nil
}

func (r *IdeaRepository) ActiveTitles(ctx context.Context) ([]string, error) {
	sql, args, err := psql.Select("title_folded").From("ideas").Where(squirrel.Eq{"active": true}).ToSql()
	if err != nil {
		return nil, mapError("active titles", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("active titles", err)
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError("active titles", err)
	}
	return titles, nil
}

func (r *IdeaRepository) LoadHistory(ctx context.Context, id valueobjects.IdeaID) ([]entities.HistoryEntry, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM ideas WHERE id = $1::uuid)", id.String()).Scan(&exists)
	if err != nil {
		return nil, mapError("load history", err)
	}
	if !exists {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}

	history, err := loadHistory(ctx, r.pool, []string{id.String()})
	if err != nil {
		return nil, mapError("load history", err)
	}
	return history[id.String()], nil
}

// loadWhere reads matching idea rows, then their children in three queries.
func (r *IdeaRepository) loadWhere(ctx context.Context, where squirrel.Sqlizer) ([]*aggregates.Idea, error) {
	sql, args, err := psql.Select(ideaColumns...).From("ideas").Where(where).OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, mapError("load ideas", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("load ideas", err)
	}

	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (aggregates.Snapshot, error) {
		var s aggregates.Snapshot
		err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Status,
			&s.Created.By, &s.Created.At, &s.Modified.By, &s.Modified.At, &s.Active, &s.Version)
		return s, err
	})
	if err != nil {
		return nil, mapError("load ideas", err)
	}
	if len(snaps) == 0 {
		return []*aggregates.Idea{}, nil
	}

	ids := make([]string, 0, len(snaps))
	for _, s := range snaps {
		ids = append(ids, s.ID)
	}
	votes, err := loadVotes(ctx, r.pool, ids)
	if err != nil {
		return nil, mapError("load votes", err)
	}
	comments, err := loadComments(ctx, r.pool, ids)
	if err != nil {
		return nil, mapError("load comments", err)
	}
	history, err := loadHistory(ctx, r.pool, ids)
	if err != nil {
		return nil, mapError("load history", err)
	}

	ideas := make([]*aggregates.Idea, 0, len(snaps))
	for _, s := range snaps {
		s.Votes, s.Comments, s.History = votes[s.ID], comments[s.ID], history[s.ID]
		s.Created.At, s.Modified.At = s.Created.At.UTC(), s.Modified.At.UTC()
		idea, err := aggregates.ReconstructIdea(s)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func childQuery(table string, columns []string, ids []string) (string, []interface{}, error) {
	return psql.Select(append([]string{"idea_id::text"}, columns...)...).
		From(table).
		Where(squirrel.Expr("idea_id = ANY(?::uuid[])", ids)).
		OrderBy("idea_id", "position").
		ToSql()
}

func loadVotes(ctx context.Context, q querier, ids []string) (map[string][]entities.Vote, error) {
	sql, args, err := childQuery("idea_votes",
		[]string{"id", "voter", "active", "created_by", "created_at", "modified_by", "modified_at"}, ids)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entities.Vote)
	for rows.Next() {
		var (
			ideaID, id, voter string
			active            bool
			created, modified entities.Stamp
		)
		if err := rows.Scan(&ideaID, &id, &voter, &active, &created.By, &created.At, &modified.By, &modified.At); err != nil {
			return nil, err
		}
		out[ideaID] = append(out[ideaID], entities.ReconstructVote(id, voter, active, utcStamp(created), utcStamp(modified)))
	}
	return out, rows.Err()
}

func loadComments(ctx context.Context, q querier, ids []string) (map[string][]entities.Comment, error) {
	sql, args, err := childQuery("idea_comments",
		[]string{"id", "body", "author", "sentiment", "evaluation_id", "active",
			"created_by", "created_at", "modified_by", "modified_at"}, ids)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entities.Comment)
	for rows.Next() {
		var (
			ideaID, id, body, author string
			annotation               entities.Annotation
			active                   bool
			created, modified        entities.Stamp
		)
		if err := rows.Scan(&ideaID, &id, &body, &author, &annotation.Sentiment, &annotation.EvaluationID, &active,
			&created.By, &created.At, &modified.By, &modified.At); err != nil {
			return nil, err
		}
		out[ideaID] = append(out[ideaID], entities.ReconstructComment(id, body, author, annotation, active,
			utcStamp(created), utcStamp(modified)))
	}
	return out, rows.Err()
}

func loadHistory(ctx context.Context, q querier, ids []string) (map[string][]entities.HistoryEntry, error) {
	sql, args, err := childQuery("idea_history",
		[]string{"id", "title", "description", "status", "actor", "at"}, ids)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entities.HistoryEntry)
	for rows.Next() {
		var (
			ideaID, id, actor string
			change            entities.Change
			at                time.Time
		)
		if err := rows.Scan(&ideaID, &id, &change.Title, &change.Description, &change.Status, &actor, &at); err != nil {
			return nil, err
		}
		out[ideaID] = append(out[ideaID], entities.NewHistoryEntry(id, change, actor, at.UTC()))
	}
	return out, rows.Err()
}

func utcStamp(s entities.Stamp) entities.Stamp {
	return entities.NewStamp(s.By, s.At)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
