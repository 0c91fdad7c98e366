package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// EarthRadiusMiles converts a distance in miles to radians on the globe.
const EarthRadiusMiles = 3963.0

var bootcampColumns = []string{
	"id", "user_id", "name", "slug", "description", "website", "phone", "email", "address",
	"latitude", "longitude", "formatted_address", "street", "city", "state", "zipcode", "country",
	"careers", "average_rating", "average_cost", "photo",
	"housing", "job_assistance", "job_guarantee", "accept_gi",
	"created_at", "updated_at",
}

var BootcampResource = query.Resource{
	Table:   "bootcamps",
	Columns: bootcampColumns,
	Fields: map[string]query.Field{
		"id":                {Column: "id", Kind: query.UUID},
		"userId":            {Column: "user_id", Kind: query.UUID},
		"name":              {Column: "name", Kind: query.String},
		"slug":              {Column: "slug", Kind: query.String},
		"description":       {Column: "description", Kind: query.String},
		"website":           {Column: "website", Kind: query.String},
		"phone":             {Column: "phone", Kind: query.String},
		"email":             {Column: "email", Kind: query.String},
		"address":           {Column: "address", Kind: query.String},
		"careers":           {Column: "careers", Kind: query.StringList},
		"averageRating":     {Column: "average_rating", Kind: query.Number},
		"averageCost":       {Column: "average_cost", Kind: query.Number},
		"photo":             {Column: "photo", Kind: query.String},
		"housing":           {Column: "housing", Kind: query.Bool},
		"jobAssistance":     {Column: "job_assistance", Kind: query.Bool},
		"jobGuarantee":      {Column: "job_guarantee", Kind: query.Bool},
		"acceptGi":          {Column: "accept_gi", Kind: query.Bool},
		"createdAt":         {Column: "created_at", Kind: query.Time},
		"updatedAt":         {Column: "updated_at", Kind: query.Time},
		"location.city":     {Column: "city", Kind: query.String},
		"location.state":    {Column: "state", Kind: query.String},
		"location.zipcode":  {Column: "zipcode", Kind: query.String},
		"location.country":  {Column: "country", Kind: query.String},
		"location.street":   {Column: "street", Kind: query.String},
		"location.latitude": {Column: "latitude", Kind: query.Number},
	},
	Keep: []string{"courses"},
}

type BootcampRepository interface {
	Create(ctx context.Context, b *model.Bootcamp) error
	FindByID(ctx context.Context, id string) (*model.Bootcamp, error)
	// List returns one page of bootcamps with their courses attached.
	List(ctx context.Context, p query.Params) (*query.Result[model.Bootcamp], error)
	FindWithinRadius(ctx context.Context, lat, lng, miles float64) ([]model.Bootcamp, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, b *model.Bootcamp) error
	UpdatePhoto(ctx context.Context, id, photo string) error
	// Delete removes the bootcamp; its courses and reviews go with it.
	Delete(ctx context.Context, id string) error
	RefreshAverageCost(ctx context.Context, id string) error
	RefreshAverageRating(ctx context.Context, id string) error
}

type pgBootcampRepository struct {
	db *sqlx.DB
}

func NewPgBootcampRepository(db *sqlx.DB) BootcampRepository {
	return &pgBootcampRepository{db: db}
}

func (r *pgBootcampRepository) Create(ctx context.Context, b *model.Bootcamp) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Photo == "" {
		b.Photo = model.DefaultPhoto
	}

	query := `INSERT INTO bootcamps (` + strings.Join(bootcampColumns, ", ") + `)
	          VALUES (:` + strings.Join(bootcampColumns, ", :") + `)`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("pgBootcampRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBootcampRepository) FindByID(ctx context.Context, id string) (*model.Bootcamp, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	b := &model.Bootcamp{}
	query := `SELECT ` + strings.Join(bootcampColumns, ", ") + ` FROM bootcamps WHERE id = $1`
	if err := getOne(ctx, r.db, b, "pgBootcampRepository.FindByID", query, id); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *pgBootcampRepository) List(ctx context.Context, p query.Params) (*query.Result[model.Bootcamp], error) {
	return query.Find[model.Bootcamp](ctx, r.db, BootcampResource, p, r.populateCourses)
}

func (r *pgBootcampRepository) populateCourses(ctx context.Context, rows []model.Bootcamp) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	q, args, err := psql.Select(courseColumns...).
		From("courses").
		Where(sq.Eq{"bootcamp_id": ids}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return err
	}
	var courses []model.Course
	if err := sqlx.SelectContext(ctx, r.db, &courses, q, args...); err != nil {
		return fmt.Errorf("pgBootcampRepository.populateCourses: %w", err)
	}

	byBootcamp := make(map[string][]model.Course, len(rows))
	for _, c := range courses {
		byBootcamp[c.BootcampID] = append(byBootcamp[c.BootcampID], c)
	}
	for i := range rows {
		rows[i].Courses = byBootcamp[rows[i].ID]
		if rows[i].Courses == nil {
			rows[i].Courses = []model.Course{}
		}
	}
	return nil
}

func (r *pgBootcampRepository) FindWithinRadius(ctx context.Context, lat, lng, miles float64) ([]model.Bootcamp, error) {
	// Haversine great-circle distance in miles.
	query := `SELECT ` + strings.Join(bootcampColumns, ", ") + ` FROM bootcamps
	          WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	            AND $3::float8 * 2 * ASIN(SQRT(
	                  POWER(SIN(RADIANS(latitude - $1) / 2), 2) +
	                  COS(RADIANS($1)) * COS(RADIANS(latitude)) * POWER(SIN(RADIANS(longitude - $2) / 2), 2)
	                )) <= $4::float8
	          ORDER BY created_at DESC`
	bootcamps := []model.Bootcamp{}
	if err := sqlx.SelectContext(ctx, r.db, &bootcamps, query, lat, lng, EarthRadiusMiles, miles); err != nil {
		return nil, fmt.Errorf("pgBootcampRepository.FindWithinRadius: %w", err)
	}
	return bootcamps, nil
}

func (r *pgBootcampRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bootcamps WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("pgBootcampRepository.CountByUser: %w", err)
	}
	return n, nil
}

func (r *pgBootcampRepository) Update(ctx context.Context, b *model.Bootcamp) error {
	if !validID(b.ID) {
		return common.ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()

	sets := make([]string, 0, len(bootcampColumns))
	for _, col := range bootcampColumns {
		switch col {
		case "id", "user_id", "created_at", "average_rating", "average_cost":
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	query := `UPDATE bootcamps SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, b)
	if err != nil {
		return fmt.Errorf("pgBootcampRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBootcampRepository) UpdatePhoto(ctx context.Context, id, photo string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	query := `UPDATE bootcamps SET photo = $1, updated_at = $2 WHERE id = $3`
	return execOne(ctx, r.db, "pgBootcampRepository.UpdatePhoto", query, photo, time.Now().UTC(), id)
}

func (r *pgBootcampRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	return execOne(ctx, r.db, "pgBootcampRepository.Delete", `DELETE FROM bootcamps WHERE id = $1`, id)
}

// RefreshAverageCost rounds the mean tuition up to the next multiple of ten.
func (r *pgBootcampRepository) RefreshAverageCost(ctx context.Context, id string) error {
	query := `UPDATE bootcamps
	          SET average_cost = (SELECT CEIL(AVG(tuition) / 10) * 10 FROM courses WHERE bootcamp_id = $1)
	          WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("pgBootcampRepository.RefreshAverageCost: %w", err)
	}
	return nil
}

func (r *pgBootcampRepository) RefreshAverageRating(ctx context.Context, id string) error {
	query := `UPDATE bootcamps
	          SET average_rating = (SELECT AVG(rating) FROM reviews WHERE bootcamp_id = $1)
	          WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("pgBootcampRepository.RefreshAverageRating: %w", err)
	}
	return nil
}
