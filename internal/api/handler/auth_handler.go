package handler

import (
	"net/http"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CookieOptions controls the session cookie set alongside token responses.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	authService *service.AuthService
	guard       Guard
	cookie      CookieOptions
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, guard Guard, cookie CookieOptions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, guard: guard, cookie: cookie, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", handle(h.log, h.register))
	r.Post("/login", handle(h.log, h.login))
	r.Get("/logout", handle(h.log, h.logout))
	r.Post("/forgotpassword", handle(h.log, h.forgotPassword))
	r.Put("/resetpassword/{resettoken}", handle(h.log, h.resetPassword))

	r.Group(func(protected chi.Router) {
		protected.Use(h.guard.Require()...)
		protected.Get("/me", handle(h.log, h.me))
		protected.Put("/updatedetails", handle(h.log, h.updateDetails))
		protected.Put("/updatepassword", handle(h.log, h.updatePassword))
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) error {
	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		return err
	}
	h.sendToken(w, http.StatusOK, resp.Token)
	return nil
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) error {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		return err
	}
	h.sendToken(w, http.StatusOK, resp.Token)
	return nil
}

// logout overwrites the session cookie with a short-lived placeholder.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     security.TokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
	})
	common.RespondWithData(w, http.StatusOK, common.Empty)
	return nil
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	fresh, err := h.authService.Me(r.Context(), user.ID)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, fresh)
	return nil
}

func (h *AuthHandler) updateDetails(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.UpdateDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	updated, err := h.authService.UpdateDetails(r.Context(), user.ID, req)
	if err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, updated)
	return nil
}

func (h *AuthHandler) updatePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req service.UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.authService.UpdatePassword(r.Context(), user.ID, req)
	if err != nil {
		return err
	}
	h.sendToken(w, http.StatusOK, resp.Token)
	return nil
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.authService.ForgotPassword(r.Context(), req.Email, resetURLBase(r)); err != nil {
		return err
	}
	common.RespondWithData(w, http.StatusOK, "Email sent")
	return nil
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) error {
	var req service.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.authService.ResetPassword(r.Context(), chi.URLParam(r, "resettoken"), req)
	if err != nil {
		return err
	}
	h.sendToken(w, http.StatusOK, resp.Token)
	return nil
}

func (h *AuthHandler) sendToken(w http.ResponseWriter, code int, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     security.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
	})
	common.RespondWithJSON(w, code, common.TokenResponse{Success: true, Token: token})
}

// resetURLBase is the absolute URL the emailed token is appended to.
func resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/api/v1/auth/resetpassword"
}
