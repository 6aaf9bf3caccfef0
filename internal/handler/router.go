package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-portal-api/api/swagger"
	"github.com/noah-isme/course-portal-api/internal/middleware"
	"github.com/noah-isme/course-portal-api/internal/models"
	"github.com/noah-isme/course-portal-api/internal/service"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
	"github.com/noah-isme/course-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/course-portal-api/pkg/response"
)

// RouterConfig bundles what the HTTP layer is built from.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Catalog        *service.Catalog
	Auth           *service.AuthService
	Exports        *service.ExportService
	Metrics        *service.MetricsService
	DB             Pinger
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logr := cfg.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logr.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Error(c, appErrors.ErrInternal)
		c.Abort()
	}))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Identity(cfg.Auth))

	metricsHandler := NewMetricsHandler(cfg.Metrics, cfg.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)

	authHandler := NewAuthHandler(cfg.Auth)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", middleware.RequireIdentity(cfg.Auth), authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	if cfg.Exports != nil {
		api.GET("/exports/students",
			middleware.RequireIdentity(cfg.Auth),
			middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin),
			NewExportHandler(cfg.Exports).Students,
		)
	}

	NewResourceHandler(cfg.Catalog, cfg.Auth, cfg.Metrics).Register(api)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
	return r
}
