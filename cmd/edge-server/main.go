package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/afit-lms/edge-server/api/swagger"
	"github.com/afit-lms/edge-server/internal/channel"
	"github.com/afit-lms/edge-server/internal/handler"
	"github.com/afit-lms/edge-server/internal/middleware"
	"github.com/afit-lms/edge-server/internal/mqtt"
	"github.com/afit-lms/edge-server/internal/reader"
	"github.com/afit-lms/edge-server/internal/repository"
	"github.com/afit-lms/edge-server/internal/service"
	"github.com/afit-lms/edge-server/pkg/cache"
	"github.com/afit-lms/edge-server/pkg/config"
	"github.com/afit-lms/edge-server/pkg/database"
	"github.com/afit-lms/edge-server/pkg/logger"
	corsmiddleware "github.com/afit-lms/edge-server/pkg/middleware/cors"
	reqidmiddleware "github.com/afit-lms/edge-server/pkg/middleware/requestid"
	"github.com/afit-lms/edge-server/pkg/tasks"
)

// @title AFIT LMS Edge Server
// @version 0.1.0
// @description Classroom edge node: RFID card enrollment, reference data sync, terminal attendance bridge
// @BasePath /
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

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		logr.Sugar().Fatalw("failed to apply schema", "error", err)
	}

	// The node must keep enrolling cards when Redis is down, so a cache
	// failure only degrades the sync list endpoints.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	lecturerRepo := repository.NewLecturerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cardReader, err := buildReader(cfg.Reader, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build card reader", "driver", cfg.Reader.Driver, "error", err)
	}

	registry := channel.NewRegistry(logr)

	runner := tasks.NewRunner("enrollment", logr)
	runner.Start(context.Background())

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, cardReader, registry, runner, validate, logr, metricsSvc)
	syncSvc := service.NewSyncService(lecturerRepo, studentRepo, courseRepo, cacheRepo, cfg.Sync.CacheTTL, validate, logr, metricsSvc)
	attendanceSvc := service.NewAttendanceService(sessionRepo, courseRepo, studentRepo, validate, logr)
	reportSvc := service.NewReportService(attendanceSvc, logr)

	bridge := mqtt.NewBridge(cfg.MQTT, attendanceSvc, metricsSvc, logr)
	if cfg.MQTT.Enabled {
		if err := bridge.Start(context.Background()); err != nil {
			logr.Sugar().Warnw("mqtt bridge unavailable, continuing HTTP-only", "error", err)
			bridge = nil
		}
	} else {
		bridge = nil
	}

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	statusHandler := handler.NewStatusChannelHandler(registry, logr)
	syncHandler := handler.NewSyncHandler(syncSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Central Server is running"})
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/cs/enroll", enrollmentHandler.Begin)
	r.GET(service.StatusChannelPathPrefix+":session_id", statusHandler.Attach)

	syncGroup := r.Group("/cs/sync")
	{
		syncGroup.POST("/lecturers", syncHandler.CreateLecturer)
		syncGroup.GET("/lecturers", syncHandler.ListLecturers)
		syncGroup.DELETE("/lecturers", syncHandler.DeleteLecturers)
		syncGroup.POST("/students", syncHandler.CreateStudent)
		syncGroup.GET("/students", syncHandler.ListStudents)
		syncGroup.DELETE("/students", syncHandler.DeleteStudents)
		syncGroup.POST("/courses", syncHandler.CreateCourse)
		syncGroup.GET("/courses", syncHandler.ListCourses)
	}

	if cfg.Reports.Enabled {
		r.GET("/cs/reports/attendance/:code", reportHandler.AttendanceSheet)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("http shutdown incomplete", "error", err)
	}

	if bridge != nil {
		bridge.Stop()
	}

	// Let in-flight enrollment sessions finish before closing their
	// status channels.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Enrollment.DrainTimeout)
	defer drainCancel()
	if err := runner.Shutdown(drainCtx); err != nil {
		logr.Sugar().Warnw("enrollment drain incomplete", "error", err)
	}
	registry.Shutdown()

	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("redis close failed", "error", err)
	}

	logr.Info("server stopped")
}

func buildReader(cfg config.ReaderConfig, logr *zap.Logger) (reader.CardReader, error) {
	switch cfg.Driver {
	case config.ReaderDriverExec:
		return reader.NewExecReader(cfg.Command, logr)
	case config.ReaderDriverSerial:
		return reader.NewSerialReader(cfg.SerialPort, cfg.BaudRate, cfg.ReadTimeout, logr), nil
	case config.ReaderDriverSim:
		return reader.NewSimReader(cfg.SimDelay), nil
	default:
		return nil, fmt.Errorf("unknown reader driver %q", cfg.Driver)
	}
}
