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

	_ "github.com/classora/classora-api/api/swagger"
	"github.com/classora/classora-api/internal/handler"
	"github.com/classora/classora-api/internal/repository"
	"github.com/classora/classora-api/internal/router"
	"github.com/classora/classora-api/internal/service"
	"github.com/classora/classora-api/pkg/cache"
	"github.com/classora/classora-api/pkg/config"
	"github.com/classora/classora-api/pkg/database"
	"github.com/classora/classora-api/pkg/jobs"
	"github.com/classora/classora-api/pkg/logger"
	"github.com/classora/classora-api/pkg/storage"
)

// @title Classora API
// @version 1.0.0
// @description Class and course administration backend
// @BasePath /api/v1
// @schemes http https
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

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.Connect(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	hallRepo := repository.NewHallRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	apiRepo := repository.NewApiRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classora-api",
	})
	userSvc := service.NewUserService(userRepo, roleRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, cacheSvc, validate, logr)
	guardianSvc := service.NewGuardianService(guardianRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, subjectRepo, userRepo, studentRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, courseRepo, cacheSvc, validate, logr)
	hallSvc := service.NewHallService(hallRepo, cacheSvc, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, enrollmentRepo, cacheSvc, validate, logr)
	roleSvc := service.NewRoleService(roleRepo, cacheSvc, validate, logr)
	apiSvc := service.NewApiService(apiRepo, cacheSvc, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, apiRepo, cacheSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	}, cfg.Audit.Enabled)
	exportSvc := service.NewExportService(auditRepo, paymentRepo, store, signer, validate, logr)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Students:    handler.NewStudentHandler(studentSvc, paymentSvc),
		Guardians:   handler.NewGuardianHandler(guardianSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Events:      handler.NewEventHandler(eventSvc),
		Halls:       handler.NewHallHandler(hallSvc),
		Payments:    handler.NewPaymentHandler(paymentSvc, exportSvc),
		Roles:       handler.NewRoleHandler(roleSvc),
		Apis:        handler.NewApiHandler(apiSvc),
		AuditLogs:   handler.NewAuditLogHandler(auditSvc),
		Reports:     handler.NewReportHandler(exportSvc),
		Metrics:     handler.NewMetricsHandler(metrics, db, redisClient),
	}
	services := router.Services{
		Auth:    authSvc,
		Roles:   roleSvc,
		Audits:  auditSvc,
		Metrics: metrics,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	engine := router.New(cfg, logr, handlers, services)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
