//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"
	"github.com/HelloTanvir/devcamper-api/internal/platform/database"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("devcamper"),
		postgres.WithUsername("devcamper"),
		postgres.WithPassword("devcamper"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db, zaptest.NewLogger(t)))
	// A second run must be a no-op.
	require.NoError(t, database.Migrate(ctx, db, zaptest.NewLogger(t)))
	return db
}

func TestPostgres_BootcampLifecycle(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	users := NewPgUserRepository(db)
	bootcamps := NewPgBootcampRepository(db)
	courses := NewPgCourseRepository(db)
	reviews := NewPgReviewRepository(db)

	publisher := &model.User{ID: uuid.NewString(), Name: "Pub", Email: "pub@example.com", Role: model.RolePublisher, HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, publisher))
	reader := &model.User{ID: uuid.NewString(), Name: "Reader", Email: "reader@example.com", Role: model.RoleUser, HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, reader))

	lat, lng := 42.3601, -71.0589
	camp := &model.Bootcamp{
		ID:          uuid.NewString(),
		UserID:      publisher.ID,
		Name:        "Devworks Bootcamp",
		Slug:        "devworks-bootcamp",
		Description: "Full stack web development",
		Careers:     model.StringList{"Web Development", "UI/UX"},
		Housing:     true,
		Location:    model.Location{Latitude: &lat, Longitude: &lng},
	}
	require.NoError(t, bootcamps.Create(ctx, camp))

	for _, tuition := range []float64{10000, 12500} {
		require.NoError(t, courses.Create(ctx, &model.Course{
			ID: uuid.NewString(), Title: "Course", Description: "d", Weeks: "8", Tuition: tuition,
			MinimumSkill: model.SkillBeginner, BootcampID: camp.ID, UserID: publisher.ID,
		}))
	}
	require.NoError(t, bootcamps.RefreshAverageCost(ctx, camp.ID))

	require.NoError(t, reviews.Create(ctx, &model.Review{
		ID: uuid.NewString(), Title: "Great", Text: "t", Rating: 8, BootcampID: camp.ID, UserID: reader.ID,
	}))
	dup := reviews.Create(ctx, &model.Review{
		ID: uuid.NewString(), Title: "Again", Text: "t", Rating: 2, BootcampID: camp.ID, UserID: reader.ID,
	})
	assert.Equal(t, "Duplicate field value entered", common.MessageFromError(dup))
	require.NoError(t, bootcamps.RefreshAverageRating(ctx, camp.ID))

	got, err := bootcamps.FindByID(ctx, camp.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageCost)
	assert.Equal(t, 11250.0, *got.AverageCost)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 8.0, *got.AverageRating)
	assert.Equal(t, model.StringList{"Web Development", "UI/UX"}, got.Careers)

	near, err := bootcamps.FindWithinRadius(ctx, 42.35, -71.06, 10)
	require.NoError(t, err)
	assert.Len(t, near, 1)
	far, err := bootcamps.FindWithinRadius(ctx, 34.05, -118.24, 10)
	require.NoError(t, err)
	assert.Empty(t, far)

	p, err := query.Parse(map[string][]string{"averageCost[gte]": {"11000"}}, BootcampResource)
	require.NoError(t, err)
	page, err := bootcamps.List(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Len(t, page.Data[0].Courses, 2)

	require.NoError(t, bootcamps.Delete(ctx, camp.ID))
	left, err := courses.ListByBootcamp(ctx, camp.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	leftReviews, err := reviews.ListByBootcamp(ctx, camp.ID)
	require.NoError(t, err)
	assert.Empty(t, leftReviews)
}
