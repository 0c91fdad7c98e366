package handler

import (
	"errors"
	"net/http"

	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxMultipartMemory is how much of a multipart body is held in memory
// before spilling to temporary files.
const maxMultipartMemory = 10 << 20

// multipartOverhead allows for part headers and boundaries on top of the
// photo itself.
const multipartOverhead = 64 << 10

type BootcampHandler struct {
	bootcampService *service.BootcampService
	courses         *CourseHandler
	reviews         *ReviewHandler
	guard           Guard
	log             *zap.Logger
}

func NewBootcampHandler(bs *service.BootcampService, courses *CourseHandler, reviews *ReviewHandler, guard Guard, log *zap.Logger) *BootcampHandler {
	return &BootcampHandler{bootcampService: bs, courses: courses, reviews: reviews, guard: guard, log: log}
}

func (h *BootcampHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", handle(h.log, h.listBootcamps))
	r.Get("/radius/{zipcode}/{distance}", handle(h.log, h.bootcampsInRadius))
	r.Get("/{bootcampID}", handle(h.log, h.getBootcamp))

	r.Route("/{bootcampID}/courses", h.courses.RegisterBootcampRoutes)
	r.Route("/{bootcampID}/reviews", h.reviews.RegisterBootcampRoutes)

	r.Group(func(publisher chi.Router) {
		publisher.Use(h.guard.Require(model.RolePublisher, model.RoleAdmin)...)
		publisher.Post("/", handle(h.log, h.createBootcamp))
		publisher.Put("/{bootcampID}", handle(h.log, h.updateBootcamp))
		publisher.Delete("/{bootcampID}", handle(h.log, h.deleteBootcamp))
		publisher.Put("/{bootcampID}/photo", handle(h.log, h.uploadPhoto))
	})
}

func (h *BootcampHandler) listBootcamps(w http.ResponseWriter, r *http.Request) error {
	res, err := h.bootcampService.List(r.Context(), r.URL.Query())
	if err != nil {
		return err
	}
	return respondPage(w, res)
}

func (h *BootcampHandler) getBootcamp(w http.ResponseWriter, r *http.Request) error {
	b, err := h.bootcampService.Get(r.Context(), chi.URLParam(r, "bootcampID"))
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, b)
	return nil
}

func (h *BootcampHandler) bootcampsInRadius(w http.ResponseWriter, r *http.Request) error {
	bootcamps, err := h.bootcampService.WithinRadius(r.Context(), chi.URLParam(r, "zipcode"), chi.URLParam(r, "distance"))
	if err != nil {
		return err
	}
	respondList(w, len(bootcamps), bootcamps)
	return nil
}

func (h *BootcampHandler) createBootcamp(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.CreateBootcampRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	b, err := h.bootcampService.Create(r.Context(), user, req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusCreated, b)
	return nil
}

func (h *BootcampHandler) updateBootcamp(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.UpdateBootcampRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	b, err := h.bootcampService.Update(r.Context(), user, chi.URLParam(r, "bootcampID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, b)
	return nil
}

func (h *BootcampHandler) deleteBootcamp(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	if err := h.bootcampService.Delete(r.Context(), user, chi.URLParam(r, "bootcampID")); err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, common.Empty)
	return nil
}

func (h *BootcampHandler) uploadPhoto(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.bootcampService.MaxUploadSize()+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return h.bootcampService.UploadTooLarge()
		}
		return common.Validation("Please upload a file")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return common.Validation("Please upload a file")
	}
	defer file.Close()

	name, err := h.bootcampService.UploadPhoto(r.Context(), user, chi.URLParam(r, "bootcampID"), file, header.Filename, header.Size)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, name)
	return nil
}
