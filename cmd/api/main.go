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
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/config"
	"github.com/noah-isme/tutorlink-api/internal/database"
	"github.com/noah-isme/tutorlink-api/internal/handler"
	"github.com/noah-isme/tutorlink-api/internal/middleware"
	"github.com/noah-isme/tutorlink-api/internal/models"
	"github.com/noah-isme/tutorlink-api/internal/repository"
	"github.com/noah-isme/tutorlink-api/internal/router"
	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/pkg/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Teacher{},
		&models.Student{},
		&models.Session{},
		&models.SessionEnrollment{},
		&models.TeacherAvailability{},
		&models.StudentAvailability{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional; cross-node fan-out falls back to redis pub/sub alone.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer func() {
			_ = natsConn.Drain()
		}()
	}

	schedulerClient, err := scheduler.New(scheduler.Config{
		BaseURL: cfg.SchedulerBaseURL,
		Timeout: cfg.SchedulerTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create scheduler client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)

	identityService := service.NewIdentityService(teacherRepo, studentRepo, cfg.IsSeedTeacher, cfg.ResolveTimeout, logger)
	feedService := service.NewFeedService(sessionRepo, enrollmentRepo, redisClient, service.FeedConfig{
		ChannelBase:   cfg.EventChannelBase,
		PollInterval:  cfg.FeedPollInterval,
		CacheTTL:      cfg.FeedCacheTTL,
		RetryAttempts: cfg.FeedRetryAttempts,
	}, logger)
	chatService := service.NewChatService(schedulerClient, feedService, validate, logger)
	availabilityService := service.NewAvailabilityService(availabilityRepo, validate, logger)
	eventService := service.NewEventService(redisClient, natsConn, cfg.EventChannelBase, logger)

	eventService.Subscribe(feedService.NotifyChange)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feedService.Start(runCtx)
	eventService.Start(runCtx)

	identityHandler := handler.NewIdentityHandler(identityService, validate, logger)
	sessionHandler := handler.NewSessionHandler(feedService, identityService, logger)
	chatHandler := handler.NewChatHandler(chatService, identityService, logger)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService, logger)
	eventHandler := handler.NewEventHandler(eventService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		IdentityHandler:     identityHandler,
		SessionHandler:      sessionHandler,
		ChatHandler:         chatHandler,
		AvailabilityHandler: availabilityHandler,
		EventHandler:        eventHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		ChatRateLimit:       middleware.RateLimit("chat", 30, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
