package query

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Populator attaches related records to a fetched page in place.
type Populator[T any] func(ctx context.Context, rows []T) error

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

type Result[T any] struct {
	// Count is the number of records on this page.
	Count      int
	Total      int
	Pagination Pagination
	Data       []T

	selected []string
	keep     []string
}

// Paginate reports the neighbouring pages of page given the matching total.
func Paginate(page, limit, total int) Pagination {
	var p Pagination
	start, end := (page-1)*limit, page*limit
	if end < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if start > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// CountSQL renders the count query for p.
func CountSQL(res Resource, p Params) (string, []interface{}, error) {
	b, err := where(psql.Select("COUNT(*)").From(res.Table), res, p)
	if err != nil {
		return "", nil, err
	}
	return b.ToSql()
}

// SelectSQL renders the page query for p.
func SelectSQL(res Resource, p Params) (string, []interface{}, error) {
	b, err := where(psql.Select(res.Columns...).From(res.Table), res, p)
	if err != nil {
		return "", nil, err
	}

	for _, s := range p.Sort {
		field, ok := res.Fields[s.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: cannot sort by %q", ErrMalformed, s.Field)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		b = b.OrderBy(field.Column + " " + dir)
	}

	return b.Limit(uint64(p.Limit)).Offset(uint64(p.StartIndex())).ToSql()
}

func where(b sq.SelectBuilder, res Resource, p Params) (sq.SelectBuilder, error) {
	for _, f := range p.Filters {
		field, ok := res.Fields[f.Field]
		if !ok {
			return b, fmt.Errorf("%w: cannot filter by %q", ErrMalformed, f.Field)
		}
		col := field.Column
		if field.Kind == StringList {
			b = b.Where(overlaps(col, f.Values))
			continue
		}
		switch f.Op {
		case OpGt:
			b = b.Where(sq.Gt{col: f.Values[0]})
		case OpGte:
			b = b.Where(sq.GtOrEq{col: f.Values[0]})
		case OpLt:
			b = b.Where(sq.Lt{col: f.Values[0]})
		case OpLte:
			b = b.Where(sq.LtOrEq{col: f.Values[0]})
		case OpIn:
			b = b.Where(sq.Eq{col: f.Values})
		default:
			b = b.Where(sq.Eq{col: f.Values[0]})
		}
	}
	return b, nil
}

// overlaps matches a JSONB string array holding any of values. The ?| operator
// is escaped as ??| for squirrel's placeholder rewriting.
func overlaps(col string, values []interface{}) sq.Sqlizer {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, fmt.Sprint(v))
	}
	return sq.Expr(col+" ??| ?::text[]", strs)
}

// Find runs p against res and returns one page plus pagination computed over
// the filtered total.
func Find[T any](ctx context.Context, db sqlx.QueryerContext, res Resource, p Params, populate ...Populator[T]) (*Result[T], error) {
	countQuery, countArgs, err := CountSQL(res, p)
	if err != nil {
		return nil, err
	}
	var total int
	if err := sqlx.GetContext(ctx, db, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("count %s: %w", res.Table, err)
	}

	pageQuery, args, err := SelectSQL(res, p)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if err := sqlx.SelectContext(ctx, db, &rows, pageQuery, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", res.Table, err)
	}

	for _, fn := range populate {
		if err := fn(ctx, rows); err != nil {
			return nil, err
		}
	}

	return NewResult(rows, total, res, p), nil
}

// NewResult wraps one page of rows fetched for p.
func NewResult[T any](rows []T, total int, res Resource, p Params) *Result[T] {
	if rows == nil {
		rows = []T{}
	}
	return &Result[T]{
		Count:      len(rows),
		Total:      total,
		Pagination: Paginate(p.Page, p.Limit, total),
		Data:       rows,
		selected:   p.Select,
		keep:       res.Keep,
	}
}
