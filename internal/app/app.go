// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shoppingtop/internal/config"
	"shoppingtop/internal/handlers"
	"shoppingtop/internal/middleware"
	"shoppingtop/internal/repositories"
	"shoppingtop/internal/services"
	"shoppingtop/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is the assembled HTTP application.
type App struct {
	Fiber       *fiber.App
	AuthService *services.AuthService
	ListService *services.ListService
}

// New builds the application on top of db. events may be nil.
func New(cfg *config.Config, db *gorm.DB, events services.ListEventPublisher, log *slog.Logger, opts ...services.ListServiceOption) (*App, error) {
	engine, err := views.New()
	if err != nil {
		return nil, err
	}

	// --- Repositories ---
	listRepo := repositories.NewGORMListRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	listService := services.NewListService(listRepo, userRepo, events, log, opts...)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.SessionTTL, log)

	// --- Handlers ---
	listHandler := handlers.NewListHandler(listService, log)
	authHandler := handlers.NewAuthHandler(authService, cfg.CookieSecure, log)

	app := fiber.New(fiber.Config{
		AppName:      "shoppingtop",
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler(log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.RequestLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events != nil,
		})
	})

	sessionRequired := middleware.SessionRequired(authService)

	authHandler.RegisterRoutes(app, sessionRequired)
	listHandler.RegisterRoutes(app.Group("/shoppinglist", sessionRequired))

	return &App{
		Fiber:       app,
		AuthService: authService,
		ListService: listService,
	}, nil
}

// SeedAdmin creates the configured initial account when it does not exist.
func (a *App) SeedAdmin(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	user, err := a.AuthService.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Info("admin user ready", slog.String("username", user.Username), slog.Uint64("user_id", uint64(user.ID)))
	return nil
}
