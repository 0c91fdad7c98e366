package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository"
	"github.com/HelloTanvir/devcamper-api/internal/platform/geocoder"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// PhotoStore persists uploaded bootcamp photos.
type PhotoStore interface {
	Save(name string, r io.Reader) error
}

type BootcampService struct {
	bootcampRepo repository.BootcampRepository
	geocoder     geocoder.Geocoder
	photos       PhotoStore
	maxUpload    int64
	log          *zap.Logger
}

func NewBootcampService(
	bootcampRepo repository.BootcampRepository,
	gc geocoder.Geocoder,
	photos PhotoStore,
	maxUpload int64,
	log *zap.Logger,
) *BootcampService {
	return &BootcampService{
		bootcampRepo: bootcampRepo,
		geocoder:     gc,
		photos:       photos,
		maxUpload:    maxUpload,
		log:          log,
	}
}

type CreateBootcampRequest struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"required"`
	Careers       []string `json:"careers" validate:"required,min=1,dive,career"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGi      bool     `json:"acceptGi"`
}

type UpdateBootcampRequest struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Website       *string   `json:"website,omitempty" validate:"omitempty,url"`
	Phone         *string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string   `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string   `json:"address,omitempty" validate:"omitempty,min=1"`
	Careers       *[]string `json:"careers,omitempty" validate:"omitempty,min=1,dive,career"`
	Housing       *bool     `json:"housing,omitempty"`
	JobAssistance *bool     `json:"jobAssistance,omitempty"`
	JobGuarantee  *bool     `json:"jobGuarantee,omitempty"`
	AcceptGi      *bool     `json:"acceptGi,omitempty"`
}

func (s *BootcampService) List(ctx context.Context, values url.Values) (*query.Result[model.Bootcamp], error) {
	p, err := query.Parse(values, repository.BootcampResource)
	if err != nil {
		return nil, err
	}
	return s.bootcampRepo.List(ctx, p)
}

func (s *BootcampService) Get(ctx context.Context, id string) (*model.Bootcamp, error) {
	b, err := s.bootcampRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("Bootcamp not found with id of %s", id)
		}
		return nil, err
	}
	return b, nil
}

func (s *BootcampService) Create(ctx context.Context, user *model.User, req CreateBootcampRequest) (*model.Bootcamp, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// A publisher may own a single bootcamp; admins are not limited.
	if !user.IsAdmin() {
		n, err := s.bootcampRepo.CountByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, common.Validation("The user with ID %s has already published a bootcamp", user.ID)
		}
	}

	b := &model.Bootcamp{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Name:          req.Name,
		Slug:          slug.Make(req.Name),
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Careers:       model.StringList(req.Careers),
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGi:      req.AcceptGi,
	}
	if err := s.locate(ctx, b); err != nil {
		return nil, err
	}

	if err := s.bootcampRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bootcamp: %w", err)
	}
	return b, nil
}

func (s *BootcampService) Update(ctx context.Context, user *model.User, id string, req UpdateBootcampRequest) (*model.Bootcamp, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanModify(b.UserID) {
		return nil, common.Forbidden("User %s is not authorized to update this bootcamp", user.ID)
	}

	if req.Name != nil && *req.Name != b.Name {
		b.Name = *req.Name
		b.Slug = slug.Make(b.Name)
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Website != nil {
		b.Website = *req.Website
	}
	if req.Phone != nil {
		b.Phone = *req.Phone
	}
	if req.Email != nil {
		b.Email = *req.Email
	}
	if req.Careers != nil {
		b.Careers = model.StringList(*req.Careers)
	}
	if req.Housing != nil {
		b.Housing = *req.Housing
	}
	if req.JobAssistance != nil {
		b.JobAssistance = *req.JobAssistance
	}
	if req.JobGuarantee != nil {
		b.JobGuarantee = *req.JobGuarantee
	}
	if req.AcceptGi != nil {
		b.AcceptGi = *req.AcceptGi
	}
	if req.Address != nil && *req.Address != b.Address {
		b.Address = *req.Address
		if err := s.locate(ctx, b); err != nil {
			return nil, err
		}
	}

	if err := s.bootcampRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bootcamp: %w", err)
	}
	return b, nil
}

// Delete removes the bootcamp together with its courses and reviews.
func (s *BootcampService) Delete(ctx context.Context, user *model.User, id string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(b.UserID) {
		return common.Forbidden("User %s is not authorized to delete this bootcamp", user.ID)
	}
	return s.bootcampRepo.Delete(ctx, id)
}

// WithinRadius returns the bootcamps within distance miles of the centre of
// zipcode.
func (s *BootcampService) WithinRadius(ctx context.Context, zipcode, distance string) ([]model.Bootcamp, error) {
	miles, err := strconv.ParseFloat(distance, 64)
	if err != nil || miles <= 0 {
		return nil, common.Validation("Please provide a valid distance")
	}

	loc, err := s.geocoder.Geocode(ctx, zipcode)
	if err != nil {
		return nil, err
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return nil, common.NotFound("No location found for %s", zipcode)
	}
	return s.bootcampRepo.FindWithinRadius(ctx, *loc.Latitude, *loc.Longitude, miles)
}

// MaxUploadSize is the largest accepted photo in bytes.
func (s *BootcampService) MaxUploadSize() int64 {
	return s.maxUpload
}

func (s *BootcampService) UploadTooLarge() error {
	return common.Validation("Please upload an image less than %d", s.maxUpload)
}

// UploadPhoto stores an image for the bootcamp and records its file name.
// size is the length of the uploaded part.
func (s *BootcampService) UploadPhoto(ctx context.Context, user *model.User, id string, file io.Reader, filename string, size int64) (string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !user.CanModify(b.UserID) {
		return "", common.Forbidden("User %s is not authorized to update this bootcamp", user.ID)
	}
	if size > s.maxUpload {
		return "", s.UploadTooLarge()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", common.Validation("Please upload an image file")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mtype.Extension()
	}
	name := fmt.Sprintf("photo_%s%s", b.ID, ext)

	if err := s.photos.Save(name, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		return "", common.Dependency(err, "Problem with file upload")
	}

	if err := s.bootcampRepo.UpdatePhoto(ctx, b.ID, name); err != nil {
		return "", fmt.Errorf("failed to record photo: %w", err)
	}
	return name, nil
}

// locate geocodes the bootcamp address into its location. Without a
// configured geocoder the bootcamp is stored without coordinates.
func (s *BootcampService) locate(ctx context.Context, b *model.Bootcamp) error {
	loc, err := s.geocoder.Geocode(ctx, b.Address)
	switch {
	case err == nil:
		b.Location = *loc
		return nil
	case errors.Is(err, geocoder.ErrGeocoderDisabled):
		s.log.Warn("geocoder disabled, storing bootcamp without location", zap.String("bootcamp_id", b.ID))
		b.Location = model.Location{}
		return nil
	case errors.Is(err, common.ErrNotFound):
		return common.Validation("Please add a valid address")
	default:
		return err
	}
}
