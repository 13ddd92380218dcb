package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sstb-school/student-affairs-api/api/swagger"
	"github.com/sstb-school/student-affairs-api/internal/client"
	"github.com/sstb-school/student-affairs-api/internal/handler"
	"github.com/sstb-school/student-affairs-api/internal/middleware"
	"github.com/sstb-school/student-affairs-api/internal/repository"
	"github.com/sstb-school/student-affairs-api/internal/service"
	"github.com/sstb-school/student-affairs-api/pkg/cache"
	"github.com/sstb-school/student-affairs-api/pkg/config"
	"github.com/sstb-school/student-affairs-api/pkg/database"
	"github.com/sstb-school/student-affairs-api/pkg/jobs"
	"github.com/sstb-school/student-affairs-api/pkg/logger"
	corsmiddleware "github.com/sstb-school/student-affairs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sstb-school/student-affairs-api/pkg/middleware/requestid"
	"github.com/sstb-school/student-affairs-api/pkg/storage"
)

// @title Student Affairs API
// @version 1.0.0
// @description School student-affairs services: user directory, SOS alerts, lost & found, point deductions
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

	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := repository.Bootstrap(ctx, db, logr); err != nil {
		sugar.Fatalw("failed to bootstrap schema", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to init attachment storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	sosRepo := repository.NewSOSRepository(db)
	lostFoundRepo := repository.NewLostFoundRepository(db)
	deductionRepo := repository.NewDeductionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Best-effort side effects run on detached single-attempt dispatchers:
	// a failed advisory or webhook never touches the committed record.
	var advisoryDispatcher *jobs.Dispatcher
	if cfg.Advisory.Enabled {
		advisoryClient := client.NewAdvisoryClient(cfg.Advisory, logr)
		advisoryDispatcher = jobs.NewDispatcher("advisory", func(taskCtx context.Context, task jobs.Task) error {
			payload, ok := task.Payload.(service.AdvisoryTaskPayload)
			if !ok {
				return fmt.Errorf("unexpected payload type for task %s", task.ID)
			}
			text, err := advisoryClient.Generate(taskCtx, client.AdvisoryRequest{
				Category:    string(payload.Category),
				Location:    payload.Location,
				Description: payload.Description,
			})
			if err != nil {
				return err
			}
			return sosRepo.SetAdvisory(taskCtx, payload.AlertID, text)
		}, jobs.DispatcherConfig{Workers: 2, Logger: logr})
		advisoryDispatcher.Start(ctx)
		defer advisoryDispatcher.Stop()
	}

	var notifyDispatcher *jobs.Dispatcher
	if cfg.Notify.Enabled {
		notifier := client.NewGuardianNotifier(cfg.Notify, logr)
		notifyDispatcher = jobs.NewDispatcher("guardian-notify", func(taskCtx context.Context, task jobs.Task) error {
			payload, ok := task.Payload.(service.GuardianNotifyPayload)
			if !ok {
				return fmt.Errorf("unexpected payload type for task %s", task.ID)
			}
			return notifier.Send(taskCtx, client.NotificationFor(payload.Student, payload.Detail))
		}, jobs.DispatcherConfig{Workers: 2, Logger: logr})
		notifyDispatcher.Start(ctx)
		defer notifyDispatcher.Stop()
	}

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	directoryService := service.NewDirectoryService(userRepo, validate, logr)
	catalogService := service.NewCatalogService(catalogRepo, redisClient, cfg.Catalog.CacheTTL, logr)
	sosService := service.NewSOSService(sosRepo, userRepo, dispatcherOrNil(advisoryDispatcher), validate, logr)
	lostFoundService := service.NewLostFoundService(lostFoundRepo, userRepo, catalogRepo, validate, logr)
	deductionService := service.NewDeductionService(deductionRepo, userRepo, catalogRepo, dispatcherOrNil(notifyDispatcher), validate, logr)
	exportService := service.NewExportService(deductionService, userRepo, exportStore, signer, logr)
	settingsService := service.NewSettingsService(settingsRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(directoryService),
		Catalog:     handler.NewCatalogHandler(catalogService),
		SOS:         handler.NewSOSHandler(sosService, metricsService),
		LostFound:   handler.NewLostFoundHandler(lostFoundService, metricsService),
		Deductions:  handler.NewDeductionHandler(deductionService, exportService, metricsService),
		Settings:    handler.NewSettingsHandler(settingsService),
		Attachments: handler.NewAttachmentHandler(attachmentStore, cfg.Attachments),
		Metrics:     handler.NewMetricsHandler(metricsService),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authService)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}

// dispatcherOrNil avoids handing services a typed-nil interface value.
func dispatcherOrNil(d *jobs.Dispatcher) service.TaskDispatcher {
	if d == nil {
		return nil
	}
	return d
}
