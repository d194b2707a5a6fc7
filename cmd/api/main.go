package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/database"
	"github.com/noah-isme/peergrade-api/internal/handler"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/repository"
	"github.com/noah-isme/peergrade-api/internal/router"
	"github.com/noah-isme/peergrade-api/internal/service"
	cloud "github.com/noah-isme/peergrade-api/pkg/cloudinary"
	objectstore "github.com/noah-isme/peergrade-api/pkg/minio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.HealthProbe{"database": database.SQLProbe(db)}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = database.RedisProbe(redisClient)
	} else {
		logger.Warn().Msg("redis url not set, results cache and cross-node events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		probes["nats"] = database.NATSProbe(natsConn)
	}

	uploader, err := newUploader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create storage backend: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewSubmissionGradeRepository(db)
	resultRepo := repository.NewGradingResultRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	eventBus := service.NewGradingEventBus(redisClient, natsConn, cfg.EventChannel, logger)
	eventBus.Start(eventsCtx)

	activityService := service.NewActivityService(activityRepo, taskRepo, validate, logger)
	resultService := service.NewResultService(taskRepo, courseRepo, resultRepo, redisClient, cfg.ResultsCacheTTL, logger)
	aggregator := service.NewAggregator(submissionRepo, resultRepo, logger)
	lifecycleService := service.NewGradingLifecycleService(taskRepo, aggregator, resultService, eventBus, activityService, logger)
	assignmentService := service.NewPeerAssignmentService(taskRepo, courseRepo, submissionRepo, gradeRepo, logger)
	gradeService := service.NewGradeService(taskRepo, submissionRepo, gradeRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, courseRepo, validate, uploader, cfg.UploadMaxSizeMB, logger)
	taskService := service.NewTaskService(taskRepo, courseRepo, validate, activityService, logger)
	courseService := service.NewCourseService(courseRepo, userRepo, validate, logger)
	seedService := service.NewSeedService(userRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:      handler.NewCourseHandler(courseService, taskService, logger),
		TaskHandler:        handler.NewTaskHandler(taskService, lifecycleService, submissionService, activityService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:     handler.NewGradingHandler(assignmentService, gradeService, resultService, logger),
		GradingFeedHandler: handler.NewGradingFeedHandler(taskService, eventBus, logger),
		SeedHandler:        handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		HealthProbes:       probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("storage", cfg.StorageDriver).Msg("peer grading api started")

	waitForShutdown(app, stopEvents)
}

func newUploader(cfg config.Config, logger zerolog.Logger) (service.FileUploader, error) {
	if cfg.StorageDriver == config.StorageDriverMinIO {
		return objectstore.New(objectstore.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, logger)
	}

	return cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
}

func waitForShutdown(app *fiber.App, stopEvents context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopEvents()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
