package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService struct {
	reviewRepo   repository.ReviewRepository
	bootcampRepo repository.BootcampRepository
	log          *zap.Logger
}

func NewReviewService(reviewRepo repository.ReviewRepository, bootcampRepo repository.BootcampRepository, log *zap.Logger) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, bootcampRepo: bootcampRepo, log: log}
}

type CreateReviewRequest struct {
	Title  string `json:"title" validate:"required,max=100"`
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"required,gte=1,lte=10"`
}

type UpdateReviewRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Text   *string `json:"text,omitempty" validate:"omitempty,min=1"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=10"`
}

func (s *ReviewService) ListForBootcamp(ctx context.Context, bootcampID string) ([]model.Review, error) {
	return s.reviewRepo.ListByBootcamp(ctx, bootcampID)
}

func (s *ReviewService) List(ctx context.Context, values url.Values) (*query.Result[model.Review], error) {
	p, err := query.Parse(values, repository.ReviewResource)
	if err != nil {
		return nil, err
	}
	return s.reviewRepo.List(ctx, p)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*model.Review, error) {
	rv, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("No review found with the id of %s", id)
		}
		return nil, err
	}
	return rv, nil
}

// Create adds the caller's review of a bootcamp. A second review by the same
// user fails as a duplicate.
func (s *ReviewService) Create(ctx context.Context, user *model.User, bootcampID string, req CreateReviewRequest) (*model.Review, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	b, err := s.bootcampRepo.FindByID(ctx, bootcampID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("No bootcamp with the id of %s", bootcampID)
		}
		return nil, err
	}

	rv := &model.Review{
		ID:         uuid.NewString(),
		Title:      req.Title,
		Text:       req.Text,
		Rating:     req.Rating,
		BootcampID: b.ID,
		UserID:     user.ID,
	}
	if err := s.reviewRepo.Create(ctx, rv); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.refreshAverageRating(ctx, b.ID)
	return rv, nil
}

func (s *ReviewService) Update(ctx context.Context, user *model.User, id string, req UpdateReviewRequest) (*model.Review, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanModify(rv.UserID) {
		return nil, common.Forbidden("Not authorized to update review")
	}

	if req.Title != nil {
		rv.Title = *req.Title
	}
	if req.Text != nil {
		rv.Text = *req.Text
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}

	if err := s.reviewRepo.Update(ctx, rv); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	s.refreshAverageRating(ctx, rv.BootcampID)
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, user *model.User, id string) error {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(rv.UserID) {
		return common.Forbidden("Not authorized to delete review")
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAverageRating(ctx, rv.BootcampID)
	return nil
}

func (s *ReviewService) refreshAverageRating(ctx context.Context, bootcampID string) {
	if err := s.bootcampRepo.RefreshAverageRating(ctx, bootcampID); err != nil {
		s.log.Error("refreshing average rating failed", zap.String("bootcamp_id", bootcampID), zap.Error(err))
	}
}
