package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"

	"github.com/jmoiron/sqlx"
)

var reviewColumns = []string{
	"id", "title", "text", "rating", "bootcamp_id", "user_id", "created_at", "updated_at",
}

var ReviewResource = query.Resource{
	Table:   "reviews",
	Columns: reviewColumns,
	Fields: map[string]query.Field{
		"id":         {Column: "id", Kind: query.UUID},
		"title":      {Column: "title", Kind: query.String},
		"text":       {Column: "text", Kind: query.String},
		"rating":     {Column: "rating", Kind: query.Number},
		"bootcampId": {Column: "bootcamp_id", Kind: query.UUID},
		"userId":     {Column: "user_id", Kind: query.UUID},
		"createdAt":  {Column: "created_at", Kind: query.Time},
		"updatedAt":  {Column: "updated_at", Kind: query.Time},
	},
	Keep: []string{"bootcamp"},
}

type ReviewRepository interface {
	// Create fails with a unique violation when the user already reviewed
	// the bootcamp.
	Create(ctx context.Context, rv *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	ListByBootcamp(ctx context.Context, bootcampID string) ([]model.Review, error)
	List(ctx context.Context, p query.Params) (*query.Result[model.Review], error)
	Update(ctx context.Context, rv *model.Review) error
	Delete(ctx context.Context, id string) error
}

type pgReviewRepository struct {
	db *sqlx.DB
}

func NewPgReviewRepository(db *sqlx.DB) ReviewRepository {
	return &pgReviewRepository{db: db}
}

func (r *pgReviewRepository) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now

	query := `INSERT INTO reviews (` + strings.Join(reviewColumns, ", ") + `)
	          VALUES (:` + strings.Join(reviewColumns, ", :") + `)`
	if _, err := r.db.NamedExecContext(ctx, query, rv); err != nil {
		return fmt.Errorf("pgReviewRepository.Create: %w", err)
	}
	return nil
}

func (r *pgReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	rv := model.Review{}
	query := `SELECT ` + strings.Join(reviewColumns, ", ") + ` FROM reviews WHERE id = $1`
	if err := getOne(ctx, r.db, &rv, "pgReviewRepository.FindByID", query, id); err != nil {
		return nil, err
	}

	rows := []model.Review{rv}
	if err := r.populateBootcamp(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (r *pgReviewRepository) ListByBootcamp(ctx context.Context, bootcampID string) ([]model.Review, error) {
	reviews := []model.Review{}
	if !validID(bootcampID) {
		return reviews, nil
	}
	query := `SELECT ` + strings.Join(reviewColumns, ", ") + ` FROM reviews WHERE bootcamp_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reviews, query, bootcampID); err != nil {
		return nil, fmt.Errorf("pgReviewRepository.ListByBootcamp: %w", err)
	}
	return reviews, nil
}

func (r *pgReviewRepository) List(ctx context.Context, p query.Params) (*query.Result[model.Review], error) {
	return query.Find[model.Review](ctx, r.db, ReviewResource, p, r.populateBootcamp)
}

func (r *pgReviewRepository) populateBootcamp(ctx context.Context, rows []model.Review) error {
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].BootcampID
	}
	summaries, err := bootcampSummaries(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		if s, ok := summaries[rows[i].BootcampID]; ok {
			rows[i].Bootcamp = &s
		}
	}
	return nil
}

func (r *pgReviewRepository) Update(ctx context.Context, rv *model.Review) error {
	if !validID(rv.ID) {
		return common.ErrNotFound
	}
	rv.UpdatedAt = time.Now().UTC()
	query := `UPDATE reviews SET title = :title, text = :text, rating = :rating, updated_at = :updated_at
	          WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rv)
	if err != nil {
		return fmt.Errorf("pgReviewRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgReviewRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	return execOne(ctx, r.db, "pgReviewRepository.Delete", `DELETE FROM reviews WHERE id = $1`, id)
}
