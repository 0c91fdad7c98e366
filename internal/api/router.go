package api

import (
	"net/http"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/api/handler"
	"github.com/HelloTanvir/devcamper-api/internal/api/middleware"
	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/platform/cache"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type Deps struct {
	Auth      *service.AuthService
	Bootcamps *service.BootcampService
	Courses   *service.CourseService
	Reviews   *service.ReviewService
	Users     *service.UserService

	// UserFinder resolves token subjects for protected routes.
	UserFinder middleware.UserFinder
	Tokens     *security.TokenIssuer
	Limiter    cache.Limiter
	Metrics    *middleware.Metrics
	Cookie     handler.CookieOptions
	UploadDir  string
	Log        *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging(d.Log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	// Bearer header first, then the session cookie. Failures are left in the
	// context for middleware.Protect to act on.
	r.Use(jwtauth.Verify(d.Tokens.Auth(), jwtauth.TokenFromHeader, security.TokenFromCookie))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	guard := handler.Guard{Protect: middleware.Protect(d.UserFinder)}

	courseHandler := handler.NewCourseHandler(d.Courses, guard, d.Log)
	reviewHandler := handler.NewReviewHandler(d.Reviews, guard, d.Log)
	bootcampHandler := handler.NewBootcampHandler(d.Bootcamps, courseHandler, reviewHandler, guard, d.Log)
	authHandler := handler.NewAuthHandler(d.Auth, guard, d.Cookie, d.Log)
	userHandler := handler.NewUserHandler(d.Users, guard, d.Log)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		if d.Limiter != nil {
			v1.Use(middleware.RateLimit(d.Limiter, d.Log))
		}
		v1.Route("/auth", authHandler.RegisterRoutes)
		v1.Route("/bootcamps", bootcampHandler.RegisterRoutes)
		v1.Route("/courses", courseHandler.RegisterRoutes)
		v1.Route("/reviews", reviewHandler.RegisterRoutes)
		v1.Route("/users", userHandler.RegisterRoutes)
	})

	return r
}
