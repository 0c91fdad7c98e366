package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// validID reports whether id can name a row. Malformed ids behave as absent
// records instead of reaching the database as a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func getOne(ctx context.Context, db sqlx.QueryerContext, dest interface{}, op string, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, db, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func execOne(ctx context.Context, db sqlx.ExecerContext, op string, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// bootcampSummaries loads the name and description of each referenced
// bootcamp, keyed by id.
func bootcampSummaries(ctx context.Context, db sqlx.QueryerContext, ids []string) (map[string]model.BootcampSummary, error) {
	out := make(map[string]model.BootcampSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := psql.Select("id", "name", "description").
		From("bootcamps").
		Where(sq.Eq{"id": uniq(ids)}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []model.BootcampSummary
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("bootcampSummaries: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
