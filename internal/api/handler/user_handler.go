package handler

import (
	"net/http"

	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves the admin-only user management routes.
type UserHandler struct {
	userService *service.UserService
	guard       Guard
	log         *zap.Logger
}

func NewUserHandler(us *service.UserService, guard Guard, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, guard: guard, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.guard.Require(model.RoleAdmin)...)
	r.Get("/", handle(h.log, h.listUsers))
	r.Post("/", handle(h.log, h.createUser))
	r.Get("/{userID}", handle(h.log, h.getUser))
	r.Put("/{userID}", handle(h.log, h.updateUser))
	r.Delete("/{userID}", handle(h.log, h.deleteUser))
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) error {
	res, err := h.userService.List(r.Context(), r.URL.Query())
	if err != nil {
		return err
	}
	return respondPage(w, res)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.userService.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) error {
	var req service.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusCreated, user)
	return nil
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) error {
	var req service.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	user, err := h.userService.Update(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) error {
	if err := h.userService.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, common.Empty)
	return nil
}
