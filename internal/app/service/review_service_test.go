package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newReviewService(t *testing.T) (*ReviewService, *memory.Store) {
	store := memory.New()
	return NewReviewService(store.Reviews(), store.Bootcamps(), zaptest.NewLogger(t)), store
}

func averageRating(t *testing.T, store *memory.Store, bootcampID string) *float64 {
	t.Helper()
	b, err := store.Bootcamps().FindByID(context.Background(), bootcampID)
	require.NoError(t, err)
	return b.AverageRating
}

func TestReviewService_Create(t *testing.T) {
	s, store := newReviewService(t)
	ctx := context.Background()
	b := seedBootcamp(t, store, seedUser(t, store, model.RolePublisher), "Devworks")
	alice := seedUser(t, store, model.RoleUser)
	bob := seedUser(t, store, model.RoleUser)

	rv, err := s.Create(ctx, alice, b.ID, CreateReviewRequest{Title: "Learned a ton", Text: "Great", Rating: 8})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rv.UserID)
	assert.Equal(t, 8.0, *averageRating(t, store, b.ID))

	_, err = s.Create(ctx, bob, b.ID, CreateReviewRequest{Title: "Meh", Text: "Fine", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 6.5, *averageRating(t, store, b.ID))

	t.Run("one review per user", func(t *testing.T) {
		_, err := s.Create(ctx, alice, b.ID, CreateReviewRequest{Title: "Again", Text: "Again", Rating: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
		assert.Equal(t, "Duplicate field value entered", common.MessageFromError(err))
		assert.Equal(t, 6.5, *averageRating(t, store, b.ID))
	})

	t.Run("missing bootcamp", func(t *testing.T) {
		missing := uuid.NewString()
		_, err := s.Create(ctx, alice, missing, CreateReviewRequest{Title: "x", Text: "y", Rating: 5})
		assert.Equal(t, "No bootcamp with the id of "+missing, common.MessageFromError(err))
	})

	t.Run("rating out of range", func(t *testing.T) {
		for _, rating := range []int{0, 11} {
			_, err := s.Create(ctx, bob, b.ID, CreateReviewRequest{Title: "x", Text: "y", Rating: rating})
			assert.ErrorIs(t, err, common.ErrValidation)
		}
	})
}

func TestReviewService_UpdateAndDelete(t *testing.T) {
	s, store := newReviewService(t)
	ctx := context.Background()
	b := seedBootcamp(t, store, seedUser(t, store, model.RolePublisher), "Devworks")
	author := seedUser(t, store, model.RoleUser)
	stranger := seedUser(t, store, model.RoleUser)
	admin := seedUser(t, store, model.RoleAdmin)

	rv, err := s.Create(ctx, author, b.ID, CreateReviewRequest{Title: "Good", Text: "Good", Rating: 7})
	require.NoError(t, err)

	rating := 10
	_, err = s.Update(ctx, stranger, rv.ID, UpdateReviewRequest{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))
	assert.Equal(t, "Not authorized to update review", common.MessageFromError(err))

	updated, err := s.Update(ctx, author, rv.ID, UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Rating)
	assert.Equal(t, 10.0, *averageRating(t, store, b.ID))

	got, err := s.Get(ctx, rv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bootcamp)
	assert.Equal(t, "Devworks", got.Bootcamp.Name)

	err = s.Delete(ctx, stranger, rv.ID)
	assert.Equal(t, "Not authorized to delete review", common.MessageFromError(err))

	require.NoError(t, s.Delete(ctx, admin, rv.ID))
	assert.Nil(t, averageRating(t, store, b.ID))

	_, err = s.Get(ctx, rv.ID)
	assert.Equal(t, "No review found with the id of "+rv.ID, common.MessageFromError(err))
}
