package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/handler"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/service"
	"github.com/noah-isme/course-portal-api/pkg/cache"
	"github.com/noah-isme/course-portal-api/pkg/config"
	"github.com/noah-isme/course-portal-api/pkg/database"
	"github.com/noah-isme/course-portal-api/pkg/logger"
)

// @title Course Portal API
// @version 1.0.0
// @description Students, coursework, weekly schedule and discussion board for one course.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWT.Secret == "" {
		logr.Fatal("JWT_SECRET must be set")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("database schema applied", zap.String("driver", db.DriverName()))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	} else {
		logr.Info("redis disabled; logout will not revoke tokens")
	}

	hasher := auth.NewBcryptHasher()
	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authService := service.NewAuthService(
		repository.NewCredentialsRepository(db),
		repository.NewRevocationRepository(redisClient),
		hasher,
		tokens,
		service.StaffAccount{
			Username:     cfg.Staff.Username,
			PasswordHash: cfg.Staff.PasswordHash,
			Role:         models.Role(cfg.Staff.Role),
		},
		logr,
	)

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Catalog:        service.NewCourseCatalog(db, hasher, logr),
		Auth:           authService,
		Exports:        service.NewExportService(repository.NewStore[models.Student](db, repository.StudentsTable), logr),
		Metrics:        metrics,
		DB:             db,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
