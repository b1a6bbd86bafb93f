package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/oracle"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	validate := validator.New()
	metrics := service.NewMetricsService()
	sessions := service.NewSessionRegistry(cfg.Timetable.HistoryLimit)

	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studyPlanRepo := repository.NewStudyPlanRepository(db)
	scheduleStore := repository.NewScheduleStore(redisClient)

	generator := oracle.NewHeuristic(zapLogger)

	generationService := service.NewGenerationService(
		sessions, generator, classRepo, teacherRepo, studyPlanRepo,
		validate, metrics, zapLogger, cfg.Timetable,
	)
	editService := service.NewEditService(sessions, teacherRepo, validate, metrics, zapLogger)
	publicationService := service.NewPublicationService(sessions, scheduleStore, validate, metrics, zapLogger)
	resetService := service.NewResetService(sessions, scheduleStore, validate, zapLogger)

	exportStorage, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		zapLogger.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SignSecret, cfg.Export.DownloadTTL)
	exportService := service.NewExportService(
		sessions, exportStorage, signer, validate, metrics, zapLogger,
		jobs.QueueConfig{Workers: cfg.Export.Workers},
	)
	exportService.Start(context.Background())
	defer exportService.Stop()

	generationHandler := handler.NewGenerationHandler(generationService)
	editHandler := handler.NewEditHandler(editService)
	publicationHandler := handler.NewPublicationHandler(publicationService, resetService)
	exportHandler := handler.NewExportHandler(exportService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(zapLogger))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "postgres"})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group(cfg.APIPrefix)
	{
		timetable := api.Group("/timetable")
		{
			timetable.POST("/generate", generationHandler.Generate)
			timetable.GET("", generationHandler.State)
			timetable.GET("/allocation", generationHandler.Allocation)

			edits := timetable.Group("/edits")
			{
				edits.POST("/move", editHandler.Move)
				edits.POST("/add", editHandler.Add)
				edits.POST("/undo", editHandler.Undo)
			}

			publish := timetable.Group("/publish")
			{
				publish.POST("/staff", publicationHandler.PublishStaff)
				publish.POST("/student", publicationHandler.PublishStudent)
			}

			timetable.POST("/reset", publicationHandler.Reset)

			timetable.POST("/export", exportHandler.Export)
			timetable.GET("/export/download", exportHandler.Download)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quitCleanup := make(chan struct{})
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-quitCleanup:
				return
			case <-ticker.C:
				removed, err := exportStorage.CleanupOlderThan(cfg.Export.FileTTL)
				if err != nil {
					zapLogger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					zapLogger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()

	go func() {
		zapLogger.Info("server starting", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server shutting down")
	close(quitCleanup)
	<-cleanupDone

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
