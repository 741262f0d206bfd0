package postgres

import (
	"context"
	"errors"

	"ideabox/domain/core/valueobjects"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory answers contact and role lookups from the contacts and
// user_roles tables. Inactive rows are ignored.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// EmailOf returns "" for unknown users.
func (d *Directory) EmailOf(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.pool.QueryRow(ctx,
		"SELECT email FROM contacts WHERE user_id = $1 AND active", userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapError("lookup contact", err)
	}
	return email, nil
}

func (d *Directory) RolesOf(ctx context.Context, userID string) (valueobjects.RoleSet, error) {
	rows, err := d.pool.Query(ctx,
		"SELECT role FROM user_roles WHERE user_id = $1 AND active", userID)
	if err != nil {
		return valueobjects.RoleSet{}, mapError("lookup roles", err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return valueobjects.RoleSet{}, mapError("lookup roles", err)
	}
	return valueobjects.ParseRoleSet(roles...), nil
}
