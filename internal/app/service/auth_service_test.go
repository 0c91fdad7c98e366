package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository/memory"
	"github.com/HelloTanvir/devcamper-api/internal/platform/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const resetBase = "http://localhost:5000/api/v1/auth/resetpassword"

func newAuthService(t *testing.T) (*AuthService, *memory.Store, *mockMailer) {
	store := memory.New()
	m := &mockMailer{}
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewAuthService(store.Users(), tokens, m, zaptest.NewLogger(t)), store, m
}

func register(t *testing.T, s *AuthService, email, password string) *AuthResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), RegisterRequest{Name: "John Doe", Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Register(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()

	resp := register(t, s, "john@gmail.com", "123456")
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.NotEqual(t, "123456", resp.User.HashedPassword)

	subject, err := s.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, subject)

	t.Run("publisher role", func(t *testing.T) {
		resp, err := s.Register(ctx, RegisterRequest{Name: "Pub", Email: "pub@gmail.com", Password: "123456", Role: "publisher"})
		require.NoError(t, err)
		assert.Equal(t, model.RolePublisher, resp.User.Role)
	})

	t.Run("admin role is rejected", func(t *testing.T) {
		_, err := s.Register(ctx, RegisterRequest{Name: "Eve", Email: "eve@gmail.com", Password: "123456", Role: "admin"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.Register(ctx, RegisterRequest{Name: "John", Email: "john@gmail.com", Password: "123456"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
		assert.Equal(t, "Duplicate field value entered", common.MessageFromError(err))
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := s.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "123"})
		require.ErrorIs(t, err, common.ErrValidation)
		msg := common.MessageFromError(err)
		assert.Contains(t, msg, "Please add a name")
		assert.Contains(t, msg, "Please add a valid email")
		assert.Contains(t, msg, "password must be at least 6 characters")
	})
}

func TestAuthService_Login(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()
	registered := register(t, s, "john@gmail.com", "123456")

	resp, err := s.Login(ctx, LoginRequest{Email: "john@gmail.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	tests := []struct {
		name    string
		req     LoginRequest
		status  int
		message string
	}{
		{"missing password", LoginRequest{Email: "john@gmail.com"}, http.StatusBadRequest, "Please provide an email and password"},
		{"missing email", LoginRequest{Password: "123456"}, http.StatusBadRequest, "Please provide an email and password"},
		{"wrong password", LoginRequest{Email: "john@gmail.com", Password: "654321"}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown email", LoginRequest{Email: "jane@gmail.com", Password: "123456"}, http.StatusUnauthorized, "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.status, common.HTTPStatusFromError(err))
			assert.Equal(t, tt.message, common.MessageFromError(err))
		})
	}
}

func TestAuthService_UpdateDetails(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()
	resp := register(t, s, "john@gmail.com", "123456")

	name := "John Updated"
	user, err := s.UpdateDetails(ctx, resp.User.ID, UpdateDetailsRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "John Updated", user.Name)
	assert.Equal(t, "john@gmail.com", user.Email)

	me, err := s.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Updated", me.Name)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()
	resp := register(t, s, "john@gmail.com", "123456")

	_, err := s.UpdatePassword(ctx, resp.User.ID, UpdatePasswordRequest{CurrentPassword: "wrong1", NewPassword: "abcdef"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, common.HTTPStatusFromError(err))
	assert.Equal(t, "Password is incorrect", common.MessageFromError(err))

	updated, err := s.UpdatePassword(ctx, resp.User.ID, UpdatePasswordRequest{CurrentPassword: "123456", NewPassword: "abcdef"})
	require.NoError(t, err)
	assert.NotEmpty(t, updated.Token)

	_, err = s.Login(ctx, LoginRequest{Email: "john@gmail.com", Password: "123456"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = s.Login(ctx, LoginRequest{Email: "john@gmail.com", Password: "abcdef"})
	assert.NoError(t, err)
}

// sentToken captures the reset link from the next mail and returns a
// function yielding its raw token.
func sentToken(m *mockMailer) func() string {
	var msg mailer.Message
	m.On("Send", mock.Anything, mock.AnythingOfType("mailer.Message")).
		Run(func(args mock.Arguments) { msg = args.Get(1).(mailer.Message) }).
		Return(nil).Once()
	return func() string {
		return msg.Text[strings.LastIndex(msg.Text, "/")+1:]
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	s, store, m := newAuthService(t)
	ctx := context.Background()
	register(t, s, "john@gmail.com", "123456")

	token := sentToken(m)
	require.NoError(t, s.ForgotPassword(ctx, "john@gmail.com", resetBase))
	m.AssertExpectations(t)

	raw := token()
	require.Len(t, raw, 40)

	stored, err := store.Users().FindByEmail(ctx, "john@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	assert.Equal(t, security.HashResetToken(raw), *stored.ResetPasswordToken)
	assert.NotEqual(t, raw, *stored.ResetPasswordToken)

	resp, err := s.ResetPassword(ctx, raw, ResetPasswordRequest{Password: "newpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = s.Login(ctx, LoginRequest{Email: "john@gmail.com", Password: "newpass"})
	require.NoError(t, err)

	t.Run("token is single use", func(t *testing.T) {
		_, err := s.ResetPassword(ctx, raw, ResetPasswordRequest{Password: "another"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
		assert.Equal(t, "Invalid token", common.MessageFromError(err))
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.ResetPassword(ctx, "deadbeef", ResetPasswordRequest{Password: "another"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestAuthService_ResetTokenExpires(t *testing.T) {
	s, _, m := newAuthService(t)
	ctx := context.Background()
	register(t, s, "john@gmail.com", "123456")

	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	token := sentToken(m)
	require.NoError(t, s.ForgotPassword(ctx, "john@gmail.com", resetBase))

	s.now = func() time.Time { return issued.Add(security.ResetTokenTTL + time.Second) }
	_, err := s.ResetPassword(ctx, token(), ResetPasswordRequest{Password: "newpass"})
	require.Error(t, err)
	assert.Equal(t, "Invalid token", common.MessageFromError(err))
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	s, _, m := newAuthService(t)

	err := s.ForgotPassword(context.Background(), "nobody@gmail.com", resetBase)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
	assert.Equal(t, "There is no user with that email", common.MessageFromError(err))
	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	s, store, m := newAuthService(t)
	ctx := context.Background()
	register(t, s, "john@gmail.com", "123456")

	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: connection refused")).Once()

	err := s.ForgotPassword(ctx, "john@gmail.com", resetBase)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDependency)
	assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))
	assert.Equal(t, "Email could not be sent", common.MessageFromError(err))

	stored, err := store.Users().FindByEmail(ctx, "john@gmail.com")
	require.NoError(t, err)
	assert.Nil(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordExpire)
}
