package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/api"
	"github.com/HelloTanvir/devcamper-api/internal/api/handler"
	"github.com/HelloTanvir/devcamper-api/internal/api/middleware"
	"github.com/HelloTanvir/devcamper-api/internal/app/service"
	"github.com/HelloTanvir/devcamper-api/internal/common/security"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository"
	"github.com/HelloTanvir/devcamper-api/internal/platform/cache"
	"github.com/HelloTanvir/devcamper-api/internal/platform/config"
	"github.com/HelloTanvir/devcamper-api/internal/platform/database"
	"github.com/HelloTanvir/devcamper-api/internal/platform/geocoder"
	"github.com/HelloTanvir/devcamper-api/internal/platform/logger"
	"github.com/HelloTanvir/devcamper-api/internal/platform/mailer"
	"github.com/HelloTanvir/devcamper-api/internal/platform/storage"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zl.Info("configuration loaded", zap.String("env", cfg.AppEnv))

	ctx := context.Background()

	// 3. Initialize Database
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, zl); err != nil {
		zl.Fatal("database migration failed", zap.Error(err))
	}
	zl.Info("database connected")

	// 4. Initialize Rate Limiter (Redis when configured)
	var limiter cache.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zl.Fatal("redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		limiter = cache.NewRedisLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)
		zl.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	} else {
		limiter = cache.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		zl.Info("using in-process rate limiter")
	}

	// 5. Initialize External Collaborators
	gc, err := geocoder.New(cfg.GeocoderProvider, cfg.GeocoderAPIKey, cfg.GeocoderBaseURL)
	if err != nil {
		zl.Fatal("geocoder setup failed", zap.Error(err))
	}
	if cfg.GeocoderAPIKey == "" {
		zl.Warn("GEOCODER_API_KEY not set, bootcamps will be stored without location")
	}

	var mail mailer.Mailer
	if cfg.MailEnabled() {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.FromName, cfg.FromEmail)
	} else {
		zl.Warn("SMTP_HOST not set, outgoing mail is logged instead of sent")
		mail = mailer.NewLog(zl)
	}

	tokens := security.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTExpire)
	photos := storage.NewDiskStore(cfg.FileUploadPath)

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	bootcampRepo := repository.NewPgBootcampRepository(db)
	courseRepo := repository.NewPgCourseRepository(db)
	reviewRepo := repository.NewPgReviewRepository(db)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, tokens, mail, zl)
	bootcampService := service.NewBootcampService(bootcampRepo, gc, photos, cfg.MaxFileUpload, zl)
	courseService := service.NewCourseService(courseRepo, bootcampRepo, zl)
	reviewService := service.NewReviewService(reviewRepo, bootcampRepo, zl)
	userService := service.NewUserService(userRepo)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(api.Deps{
		Auth:       authService,
		Bootcamps:  bootcampService,
		Courses:    courseService,
		Reviews:    reviewService,
		Users:      userService,
		UserFinder: userRepo,
		Tokens:     tokens,
		Limiter:    limiter,
		Metrics:    middleware.NewMetrics(),
		Cookie:     handler.CookieOptions{TTL: cfg.CookieTTL(), Secure: cfg.IsProduction()},
		UploadDir:  cfg.FileUploadPath,
		Log:        zl,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		zl.Info("server starting", zap.String("port", cfg.APIPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	zl.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
		return
	}
	zl.Info("server stopped gracefully")
}
