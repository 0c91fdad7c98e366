package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const userCtxKey contextKey = "user"

const notAuthorized = "Not authorized to access this route"

// UserFinder resolves the subject of a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Protect requires a valid session token and loads its user into the
// request context. It relies on jwtauth.Verify running earlier in the chain.
func Protect(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, notAuthorized)
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, notAuthorized)
				return
			}

			// The account must still exist.
			user, err := users.FindByID(r.Context(), userID)
			if errors.Is(err, common.ErrNotFound) {
				common.RespondWithError(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			if err != nil {
				common.RespondWithAppError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Authorize admits only users holding one of roles. It must run after
// Protect.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			if !slices.Contains(roles, user.Role) {
				common.RespondWithAppError(w, common.Forbidden("User role %s is not authorized to access this route", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user loaded by Protect.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok && user != nil
}

// WithUser stores user the way Protect does.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}
