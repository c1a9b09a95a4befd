package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campuskit/arp-api/api/swagger"
	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/handler"
	"github.com/campuskit/arp-api/internal/middleware"
	"github.com/campuskit/arp-api/internal/repository"
	"github.com/campuskit/arp-api/internal/service"
	"github.com/campuskit/arp-api/pkg/cache"
	"github.com/campuskit/arp-api/pkg/config"
	"github.com/campuskit/arp-api/pkg/database"
	"github.com/campuskit/arp-api/pkg/logger"
	corsmiddleware "github.com/campuskit/arp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/arp-api/pkg/middleware/requestid"
	"github.com/campuskit/arp-api/pkg/observability"
)

// @title ARP API
// @version 1.0.0
// @description Academic records portal API
// @BasePath /api/v1
// @schemes http

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

	flushSentry, err := observability.Init(cfg.Sentry.DSN, cfg.Sentry.Environment)
	if err != nil {
		logr.Warn("sentry init failed", zap.Error(err))
	}
	defer flushSentry()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	marksRepo := repository.NewMarksRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	auditRepo := repository.NewAuditRepository(db, logr, cfg.Authz.AuditTimeout)
	resolver := repository.NewOwnershipResolver(db, redisClient, logr, cfg.Authz.ResolverTimeout, cfg.Authz.RosterCacheTTL)

	metricsSvc := service.NewMetricsService()
	engine := authz.NewEngine(resolver, auditRepo, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, userRepo, resolver, validate, logr)
	marksSvc := service.NewMarksService(marksRepo, courseRepo, redisClient, cfg.Grading.CGPACacheTTL, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, submissionRepo, metricsSvc, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, courseRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, validate, logr)
	exportSvc := service.NewExportService(marksRepo, attendanceRepo, userRepo, courseRepo, marksSvc, logr)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, userSvc),
		Users:       handler.NewUserHandler(userSvc, engine),
		Courses:     handler.NewCourseHandler(courseSvc, engine),
		Marks:       handler.NewMarksHandler(marksSvc, engine),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc, engine),
		Assignments: handler.NewAssignmentHandler(assignmentSvc, engine),
		Notices:     handler.NewNoticeHandler(noticeSvc, engine),
		Leaves:      handler.NewLeaveHandler(leaveSvc, engine),
		Exports:     handler.NewExportHandler(exportSvc, engine),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		observability.CapturePanic(recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "INTERNAL_ERROR", "message": "internal server error"},
		})
	}))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
