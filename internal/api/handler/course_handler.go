package handler

import (
	"net/http"

	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CourseHandler struct {
	courseService *service.CourseService
	guard         Guard
	log           *zap.Logger
}

func NewCourseHandler(cs *service.CourseService, guard Guard, log *zap.Logger) *CourseHandler {
	return &CourseHandler{courseService: cs, guard: guard, log: log}
}

// RegisterRoutes mounts /courses.
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", handle(h.log, h.listCourses))
	r.Get("/{courseID}", handle(h.log, h.getCourse))

	r.Group(func(publisher chi.Router) {
		publisher.Use(h.guard.Require(model.RolePublisher, model.RoleAdmin)...)
		publisher.Put("/{courseID}", handle(h.log, h.updateCourse))
		publisher.Delete("/{courseID}", handle(h.log, h.deleteCourse))
	})
}

// RegisterBootcampRoutes mounts /bootcamps/{bootcampID}/courses.
func (h *CourseHandler) RegisterBootcampRoutes(r chi.Router) {
	r.Get("/", handle(h.log, h.listBootcampCourses))
	r.With(h.guard.Require(model.RolePublisher, model.RoleAdmin)...).
		Post("/", handle(h.log, h.createCourse))
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) error {
	res, err := h.courseService.List(r.Context(), r.URL.Query())
	if err != nil {
		return err
	}
	return respondPage(w, res)
}

func (h *CourseHandler) listBootcampCourses(w http.ResponseWriter, r *http.Request) error {
	courses, err := h.courseService.ListForBootcamp(r.Context(), chi.URLParam(r, "bootcampID"))
	if err != nil {
		return err
	}
	respondList(w, len(courses), courses)
	return nil
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) error {
	c, err := h.courseService.Get(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, c)
	return nil
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.CreateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	c, err := h.courseService.Create(r.Context(), user, chi.URLParam(r, "bootcampID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusCreated, c)
	return nil
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.UpdateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	c, err := h.courseService.Update(r.Context(), user, chi.URLParam(r, "courseID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, c)
	return nil
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	if err := h.courseService.Delete(r.Context(), user, chi.URLParam(r, "courseID")); err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, common.Empty)
	return nil
}
