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

type CourseService struct {
	courseRepo   repository.CourseRepository
	bootcampRepo repository.BootcampRepository
	log          *zap.Logger
}

func NewCourseService(courseRepo repository.CourseRepository, bootcampRepo repository.BootcampRepository, log *zap.Logger) *CourseService {
	return &CourseService{courseRepo: courseRepo, bootcampRepo: bootcampRepo, log: log}
}

type CreateCourseRequest struct {
	Title                string   `json:"title" validate:"required"`
	Description          string   `json:"description" validate:"required"`
	Weeks                string   `json:"weeks" validate:"required"`
	Tuition              *float64 `json:"tuition" validate:"required,gte=0"`
	MinimumSkill         string   `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool     `json:"scholarshipAvailable"`
}

type UpdateCourseRequest struct {
	Title                *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Description          *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Weeks                *string  `json:"weeks,omitempty" validate:"omitempty,min=1"`
	Tuition              *float64 `json:"tuition,omitempty" validate:"omitempty,gte=0"`
	MinimumSkill         *string  `json:"minimumSkill,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool    `json:"scholarshipAvailable,omitempty"`
}

// ListForBootcamp returns every course of one bootcamp without pagination.
func (s *CourseService) ListForBootcamp(ctx context.Context, bootcampID string) ([]model.Course, error) {
	return s.courseRepo.ListByBootcamp(ctx, bootcampID)
}

func (s *CourseService) List(ctx context.Context, values url.Values) (*query.Result[model.Course], error) {
	p, err := query.Parse(values, repository.CourseResource)
	if err != nil {
		return nil, err
	}
	return s.courseRepo.List(ctx, p)
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	c, err := s.courseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("No course with the id of %s", id)
		}
		return nil, err
	}
	return c, nil
}

func (s *CourseService) Create(ctx context.Context, user *model.User, bootcampID string, req CreateCourseRequest) (*model.Course, error) {
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
	if !user.CanModify(b.UserID) {
		return nil, common.Forbidden("User %s is not authorized to add a course to bootcamp %s", user.ID, b.ID)
	}

	c := &model.Course{
		ID:                   uuid.NewString(),
		Title:                req.Title,
		Description:          req.Description,
		Weeks:                req.Weeks,
		Tuition:              *req.Tuition,
		MinimumSkill:         req.MinimumSkill,
		ScholarshipAvailable: req.ScholarshipAvailable,
		BootcampID:           b.ID,
		UserID:               user.ID,
	}
	if err := s.courseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	s.refreshAverageCost(ctx, b.ID)
	return c, nil
}

func (s *CourseService) Update(ctx context.Context, user *model.User, id string, req UpdateCourseRequest) (*model.Course, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanModify(c.UserID) {
		return nil, common.Forbidden("User %s is not authorized to update course %s", user.ID, c.ID)
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Weeks != nil {
		c.Weeks = *req.Weeks
	}
	if req.Tuition != nil {
		c.Tuition = *req.Tuition
	}
	if req.MinimumSkill != nil {
		c.MinimumSkill = *req.MinimumSkill
	}
	if req.ScholarshipAvailable != nil {
		c.ScholarshipAvailable = *req.ScholarshipAvailable
	}

	if err := s.courseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	s.refreshAverageCost(ctx, c.BootcampID)
	return c, nil
}

func (s *CourseService) Delete(ctx context.Context, user *model.User, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(c.UserID) {
		return common.Forbidden("User %s is not authorized to delete course %s", user.ID, c.ID)
	}
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAverageCost(ctx, c.BootcampID)
	return nil
}

// refreshAverageCost recomputes the bootcamp aggregate. The course change has
// already been stored, so a failure here is logged and not returned.
func (s *CourseService) refreshAverageCost(ctx context.Context, bootcampID string) {
	if err := s.bootcampRepo.RefreshAverageCost(ctx, bootcampID); err != nil {
		s.log.Error("refreshing average cost failed", zap.String("bootcamp_id", bootcampID), zap.Error(err))
	}
}
