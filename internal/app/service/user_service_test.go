package service

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CRUD(t *testing.T) {
	store := memory.New()
	s := NewUserService(store.Users())
	ctx := context.Background()

	admin, err := s.Create(ctx, CreateUserRequest{Name: "Admin", Email: "admin@gmail.com", Password: "123456", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, security.CheckPasswordHash("123456", admin.HashedPassword))

	plain, err := s.Create(ctx, CreateUserRequest{Name: "Plain", Email: "plain@gmail.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, plain.Role)

	_, err = s.Create(ctx, CreateUserRequest{Name: "Bad", Email: "bad@gmail.com", Password: "123456", Role: "root"})
	assert.ErrorIs(t, err, common.ErrValidation)

	role := model.RolePublisher
	updated, err := s.Update(ctx, plain.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RolePublisher, updated.Role)

	res, err := s.List(ctx, url.Values{"role": {"publisher"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, plain.ID, res.Data[0].ID)

	require.NoError(t, s.Delete(ctx, plain.ID))
	_, err = s.Get(ctx, plain.ID)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))

	missing := uuid.NewString()
	err = s.Delete(ctx, missing)
	assert.Equal(t, "User not found with id of "+missing, common.MessageFromError(err))
}
