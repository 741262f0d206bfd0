package postgres

import (
	"context"

	"ideabox/domain/core/entities"
	pkgerrors "ideabox/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatusChoiceRepository struct {
	pool *pgxpool.Pool
}

func NewStatusChoiceRepository(pool *pgxpool.Pool) *StatusChoiceRepository {
	return &StatusChoiceRepository{pool: pool}
}

func (r *StatusChoiceRepository) List(ctx context.Context) ([]entities.StatusChoice, error) {
	sql, args, err := psql.
		Select("code", "display_name", "field", "is_selectable", "created_at").
		From("status_choices").
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, mapError("list status choices", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list status choices", err)
	}
	choices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.StatusChoice, error) {
		var c entities.StatusChoice
		err := row.Scan(&c.Code, &c.DisplayName, &c.Field, &c.IsSelectable, &c.CreatedAt)
		c.CreatedAt = c.CreatedAt.UTC()
		return c, err
	})
	if err != nil {
		return nil, mapError("list status choices", err)
	}
	return choices, nil
}

func (r *StatusChoiceRepository) Create(ctx context.Context, choice entities.StatusChoice) error {
	sql, args, err := psql.
		Insert("status_choices").
		Columns("code", "display_name", "field", "is_selectable", "created_at").
		Values(choice.Code, choice.DisplayName, choice.Field, choice.IsSelectable, choice.CreatedAt).
		ToSql()
	if err != nil {
		return mapError("create status choice", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.NewStatusCodeTakenError(choice.Code)
		}
		return mapError("create status choice", err)
	}
	return nil
}
