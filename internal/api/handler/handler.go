package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/HelloTanvir/devcamper-api/internal/api/middleware"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"

	"go.uber.org/zap"
)

// apiFunc is a handler whose failures are rendered by handle.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// handle turns an apiFunc into an http.HandlerFunc. Every error a handler
// returns reaches the client through common.RespondWithAppError.
func handle(log *zap.Logger, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		common.RespondWithAppError(w, err)
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return common.Validation("Invalid request payload")
}

// currentUser is only called behind middleware.Protect.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		return nil, common.Unauthorized("Not authorized to access this route")
	}
	return user, nil
}

func respondPage[T any](w http.ResponseWriter, res *query.Result[T]) error {
	data, err := res.Output()
	if err != nil {
		return err
	}
	common.RespondWithJSON(w, http.StatusOK, common.PageResponse{
		Success:    true,
		Count:      res.Count,
		Pagination: res.Pagination,
		Data:       data,
	})
	return nil
}

func respondList(w http.ResponseWriter, count int, data interface{}) {
	common.RespondWithJSON(w, http.StatusOK, common.ListResponse{Success: true, Count: count, Data: data})
}

// Guard holds the middleware that protects mutating routes.
type Guard struct {
	Protect func(http.Handler) http.Handler
}

// Require returns the middleware chain admitting authenticated users with
// one of roles. With no roles any authenticated user passes.
func (g Guard) Require(roles ...string) []func(http.Handler) http.Handler {
	if len(roles) == 0 {
		return []func(http.Handler) http.Handler{g.Protect}
	}
	return []func(http.Handler) http.Handler{g.Protect, middleware.Authorize(roles...)}
}
