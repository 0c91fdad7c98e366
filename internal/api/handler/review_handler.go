package handler

import (
	"net/http"

	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	guard         Guard
	log           *zap.Logger
}

func NewReviewHandler(rs *service.ReviewService, guard Guard, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: rs, guard: guard, log: log}
}

func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", handle(h.log, h.listReviews))
	r.Get("/{reviewID}", handle(h.log, h.getReview))

	r.Group(func(reviewer chi.Router) {
		reviewer.Use(h.guard.Require(model.RoleUser, model.RoleAdmin)...)
		reviewer.Put("/{reviewID}", handle(h.log, h.updateReview))
		reviewer.Delete("/{reviewID}", handle(h.log, h.deleteReview))
	})
}

func (h *ReviewHandler) RegisterBootcampRoutes(r chi.Router) {
	r.Get("/", handle(h.log, h.listBootcampReviews))
	r.With(h.guard.Require(model.RoleUser, model.RoleAdmin)...).
		Post("/", handle(h.log, h.createReview))
}

func (h *ReviewHandler) listReviews(w http.ResponseWriter, r *http.Request) error {
	res, err := h.reviewService.List(r.Context(), r.URL.Query())
	if err != nil {
		return err
	}
	return respondPage(w, res)
}

func (h *ReviewHandler) listBootcampReviews(w http.ResponseWriter, r *http.Request) error {
	reviews, err := h.reviewService.ListForBootcamp(r.Context(), chi.URLParam(r, "bootcampID"))
	if err != nil {
		return err
	}
	respondList(w, len(reviews), reviews)
	return nil
}

func (h *ReviewHandler) getReview(w http.ResponseWriter, r *http.Request) error {
	rv, err := h.reviewService.Get(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, rv)
	return nil
}

func (h *ReviewHandler) createReview(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	rv, err := h.reviewService.Create(r.Context(), user, chi.URLParam(r, "bootcampID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusCreated, rv)
	return nil
}

func (h *ReviewHandler) updateReview(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.UpdateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	rv, err := h.reviewService.Update(r.Context(), user, chi.URLParam(r, "reviewID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, rv)
	return nil
}

func (h *ReviewHandler) deleteReview(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	if err := h.reviewService.Delete(r.Context(), user, chi.URLParam(r, "reviewID")); err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, common.Empty)
	return nil
}
