package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-fee-api/internal/handler"
	"github.com/noah-isme/class-fee-api/internal/middleware"
	"github.com/noah-isme/class-fee-api/internal/models"
	"github.com/noah-isme/class-fee-api/internal/repository"
	"github.com/noah-isme/class-fee-api/internal/service"
	"github.com/noah-isme/class-fee-api/pkg/config"
	"github.com/noah-isme/class-fee-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-fee-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-fee-api/pkg/middleware/requestid"
	timeoutmiddleware "github.com/noah-isme/class-fee-api/pkg/middleware/timeout"
)

const cacheNamespace = "class-fee"

// newRouter wires repositories, services and handlers onto a gin engine. rdb may
// be nil.
func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, rdb *redis.Client) *gin.Engine {
	validate := validator.New()
	metrics := service.NewMetricsService()

	students := repository.NewStudentRepository(db)
	classes := repository.NewClassRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	payments := repository.NewPaymentRepository(db)
	ledger := repository.NewYearChangeRepository(db)
	audits := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(rdb, cacheNamespace, logr)
	idempotency := repository.NewIdempotencyRepository(rdb)
	tx := repository.NewTxManager(db, metrics)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Progress.CacheTTL, logr, cfg.Progress.CacheEnabled)
	progressSvc := service.NewProgressService(classes, payments, ledger, cacheSvc, metrics,
		service.ProgressServiceConfig{CacheTTL: cfg.Progress.CacheTTL}, validate, logr)
	yearChangeSvc := service.NewYearChangeService(students, classes, ledger, enrollments, tx, idempotency, progressSvc, metrics,
		service.YearChangeServiceConfig{IdempotencyTTL: cfg.Idempotency.TTL, PendingTTL: cfg.Idempotency.PendingTTL}, validate, logr)
	paymentSvc := service.NewPaymentService(payments, students, classes, ledger, enrollments, tx, progressSvc, metrics, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, validate, logr)
	authSvc := service.NewAuthService(cfg.Auth.JWTSecret)

	progressHandler := handler.NewProgressHandler(progressSvc)
	yearChangeHandler := handler.NewYearChangeHandler(yearChangeSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	authHandler := handler.NewAuthHandler()
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedHeaders: []string{handler.HeaderIdempotencyKey},
		ExposedHeaders: []string{handler.HeaderIdempotencyReplayed},
	}))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(timeoutmiddleware.Middleware(cfg.RequestTimeout))
	api.Use(middleware.JWT(authSvc))
	api.Use(middleware.RBAC(cfg.Auth.AllowedRoles...))
	api.Use(middleware.WithResponseMeta())

	api.GET("/auth/me", authHandler.Me)

	api.GET("/progress", progressHandler.Get)

	api.GET("/payments", paymentHandler.List)
	api.POST("/payments", middleware.Audit(audits, logr, models.AuditActionPaymentRecord, "payment"), paymentHandler.Record)
	api.GET("/payments/eligible", paymentHandler.Eligible)
	api.GET("/payments/fee-hint", paymentHandler.FeeHint)
	api.GET("/payments/:id/progress", progressHandler.ForPayment)
	api.PATCH("/payments/:id/status", middleware.Audit(audits, logr, models.AuditActionPaymentStatusUpdate, "payment"), paymentHandler.UpdateStatus)

	api.GET("/enrollments", enrollmentHandler.List)

	api.GET("/year-changes", yearChangeHandler.Timeline)
	api.POST("/year-changes/prepare", yearChangeHandler.Prepare)
	api.POST("/year-changes", middleware.Audit(audits, logr, models.AuditActionYearChangeConfirm, "year_change"), yearChangeHandler.Confirm)

	api.GET("/ops/metrics", metricsHandler.Snapshot)

	return r
}
