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
	"github.com/rs/zerolog"

	"github.com/noah-isme/sima-go-api/internal/config"
	"github.com/noah-isme/sima-go-api/internal/database"
	"github.com/noah-isme/sima-go-api/internal/handler"
	"github.com/noah-isme/sima-go-api/internal/middleware"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
	"github.com/noah-isme/sima-go-api/internal/router"
	"github.com/noah-isme/sima-go-api/internal/service"
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

	if err := db.AutoMigrate(&models.School{}, &models.User{}, &models.CaseRecord{}, &models.LibraryItem{}, &models.AuditLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, library cache disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSUrl)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, approval events disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	caseRepo := repository.NewCaseRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	userRepo := repository.NewUserRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	caseService := service.NewCaseService(caseRepo, auditService, validate, logger)
	schoolService := service.NewSchoolService(schoolRepo, auditService, validate, logger)
	userService := service.NewUserService(userRepo, auditService, validate, logger)
	libraryService := service.NewLibraryService(libraryRepo, auditService, redisClient, cfg.LibraryCacheTTL, natsConn, "sima.library.pending", validate, logger)
	authService := service.NewAuthService(userRepo, auditService, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		CaseHandler:    handler.NewCaseHandler(caseService, logger),
		SchoolHandler:  handler.NewSchoolHandler(schoolService, logger),
		UserHandler:    handler.NewUserHandler(userService, logger),
		LibraryHandler: handler.NewLibraryHandler(libraryService, logger),
		AuditHandler:   handler.NewAuditHandler(auditService, logger),
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
