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

var courseColumns = []string{
	"id", "title", "description", "weeks", "tuition", "minimum_skill", "scholarship_available",
	"bootcamp_id", "user_id", "created_at", "updated_at",
}

var CourseResource = query.Resource{
	Table:   "courses",
	Columns: courseColumns,
	Fields: map[string]query.Field{
		"id":                   {Column: "id", Kind: query.UUID},
		"title":                {Column: "title", Kind: query.String},
		"description":          {Column: "description", Kind: query.String},
		"weeks":                {Column: "weeks", Kind: query.String},
		"tuition":              {Column: "tuition", Kind: query.Number},
		"minimumSkill":         {Column: "minimum_skill", Kind: query.String},
		"scholarshipAvailable": {Column: "scholarship_available", Kind: query.Bool},
		"bootcampId":           {Column: "bootcamp_id", Kind: query.UUID},
		"userId":               {Column: "user_id", Kind: query.UUID},
		"createdAt":            {Column: "created_at", Kind: query.Time},
		"updatedAt":            {Column: "updated_at", Kind: query.Time},
	},
	Keep: []string{"bootcamp"},
}

type CourseRepository interface {
	Create(ctx context.Context, c *model.Course) error
	// FindByID returns the course with its bootcamp summary attached.
	FindByID(ctx context.Context, id string) (*model.Course, error)
	ListByBootcamp(ctx context.Context, bootcampID string) ([]model.Course, error)
	List(ctx context.Context, p query.Params) (*query.Result[model.Course], error)
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id string) error
}

type pgCourseRepository struct {
	db *sqlx.DB
}

func NewPgCourseRepository(db *sqlx.DB) CourseRepository {
	return &pgCourseRepository{db: db}
}

func (r *pgCourseRepository) Create(ctx context.Context, c *model.Course) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `INSERT INTO courses (` + strings.Join(courseColumns, ", ") + `)
	          VALUES (:` + strings.Join(courseColumns, ", :") + `)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("pgCourseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	c := model.Course{}
	query := `SELECT ` + strings.Join(courseColumns, ", ") + ` FROM courses WHERE id = $1`
	if err := getOne(ctx, r.db, &c, "pgCourseRepository.FindByID", query, id); err != nil {
		return nil, err
	}

	rows := []model.Course{c}
	if err := r.populateBootcamp(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (r *pgCourseRepository) ListByBootcamp(ctx context.Context, bootcampID string) ([]model.Course, error) {
	courses := []model.Course{}
	if !validID(bootcampID) {
		return courses, nil
	}
	query := `SELECT ` + strings.Join(courseColumns, ", ") + ` FROM courses WHERE bootcamp_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &courses, query, bootcampID); err != nil {
		return nil, fmt.Errorf("pgCourseRepository.ListByBootcamp: %w", err)
	}
	return courses, nil
}

func (r *pgCourseRepository) List(ctx context.Context, p query.Params) (*query.Result[model.Course], error) {
	return query.Find[model.Course](ctx, r.db, CourseResource, p, r.populateBootcamp)
}

func (r *pgCourseRepository) populateBootcamp(ctx context.Context, rows []model.Course) error {
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

func (r *pgCourseRepository) Update(ctx context.Context, c *model.Course) error {
	if !validID(c.ID) {
		return common.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE courses SET title = :title, description = :description, weeks = :weeks,
	              tuition = :tuition, minimum_skill = :minimum_skill,
	              scholarship_available = :scholarship_available, updated_at = :updated_at
	          WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("pgCourseRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCourseRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	return execOne(ctx, r.db, "pgCourseRepository.Delete", `DELETE FROM courses WHERE id = $1`, id)
}
