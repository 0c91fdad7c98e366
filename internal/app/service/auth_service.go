package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository"
	"github.com/HelloTanvir/devcamper-api/internal/platform/mailer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenIssuer
	mailer   mailer.Mailer
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenIssuer, m mailer.Mailer, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, mailer: m, log: log, now: time.Now}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateDetailsRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		HashedPassword: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.Validation("Please provide an email and password")
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.Unauthorized("Invalid credentials")
	}
	return s.respond(user)
}

// Me reloads the caller so the response reflects the stored record.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("User not found with id of %s", userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateDetails(ctx context.Context, userID string, req UpdateDetailsRequest) (*model.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !security.CheckPasswordHash(req.CurrentPassword, user.HashedPassword) {
		return nil, common.Unauthorized("Password is incorrect")
	}

	hashedPassword, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.SetPassword(ctx, user.ID, hashedPassword); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}
	user.HashedPassword = hashedPassword
	return s.respond(user)
}

// ForgotPassword stores a fresh reset token for the account and mails the
// raw token as part of a link under resetURLBase. When the mail cannot be
// sent the stored token is withdrawn again.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("There is no user with that email")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	raw, hash, err := security.NewResetToken()
	if err != nil {
		return err
	}
	expire := s.now().UTC().Add(security.ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, &hash, &expire); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := resetURLBase + "/" + raw
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password reset token",
		Text: "You are receiving this email because you (or someone else) has requested the reset of a password. " +
			"Please make a PUT request to: \n\n" + resetURL,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("sending reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		if clearErr := s.userRepo.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			s.log.Error("clearing reset token failed", zap.String("user_id", user.ID), zap.Error(clearErr))
		}
		return common.Dependency(err, "Email could not be sent")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, req ResetPasswordRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.ConsumeResetToken(ctx, security.HashResetToken(rawToken), s.now().UTC(), hashedPassword)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Validation("Invalid token")
		}
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}
	return s.respond(user)
}

func (s *AuthService) respond(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}
