package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/scholaris/scholaris-backend/internal/api"
	"github.com/scholaris/scholaris-backend/internal/api/middleware"
	"github.com/scholaris/scholaris-backend/internal/auth"
	"github.com/scholaris/scholaris-backend/internal/chat"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/database"
	"github.com/scholaris/scholaris-backend/internal/engine"
	openaiengine "github.com/scholaris/scholaris-backend/internal/engine/openai"
	"github.com/scholaris/scholaris-backend/internal/repository"
	"github.com/scholaris/scholaris-backend/internal/repository/memory"
	"github.com/scholaris/scholaris-backend/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	sessions, messages, cleanup, err := buildRepositories(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}
	defer cleanup()

	// The engine is built once at startup; construction failure is
	// fatal here rather than a deferred runtime error.
	eng, err := openaiengine.New(openaiengine.Config{
		APIKey:       cfg.Engine.APIKey,
		BaseURL:      cfg.Engine.BaseURL,
		Model:        cfg.Engine.Model,
		SystemPrompt: cfg.Engine.SystemPrompt,
		Temperature:  cfg.Engine.Temperature,
		MaxTokens:    cfg.Engine.MaxTokens,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize reasoning engine")
	}
	guarded := engine.Guard(eng, cfg.Engine.MaxConcurrent)

	svc := chat.NewService(sessions, messages, log)
	orch := chat.NewOrchestrator(sessions, messages, guarded, log)

	app := fiber.New(fiber.Config{
		AppName:      "Scholaris Backend",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	if cfg.Server.RateLimit > 0 {
		app.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute))
	}

	var authMW fiber.Handler
	if cfg.Auth.Enabled {
		authMW = middleware.RequireAuth(middleware.AuthConfig{
			JWT:          auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
			APIKeyHashes: cfg.Auth.APIKeyHashes,
		})
	}

	api.SetupRoutes(app, svc, orch, authMW)

	// Graceful shutdown so in-flight turns can finish persisting.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("scholaris backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// buildRepositories selects the storage backend from config. The
// memory driver keeps everything in-process for local development.
func buildRepositories(cfg *config.Config, log *logrus.Logger) (repository.SessionRepository, repository.MessageRepository, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage, data is not durable")
		store := memory.NewStore()
		return store.Sessions(), store.Messages(), func() {}, nil
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(cfg.Database); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return postgres.NewSessionRepository(db.DB), postgres.NewMessageRepository(db.DB), func() { db.Close() }, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
