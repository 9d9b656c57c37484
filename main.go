package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shoppingtop/internal/app"
	"shoppingtop/internal/config"
	"shoppingtop/internal/database"
	"shoppingtop/internal/services"
	"shoppingtop/pkg/rabbitmq"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional config file")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// --- Database ---
	db, err := database.Open(database.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseDSN})
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- List events (optional) ---
	var events services.ListEventPublisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, logger)
		if err != nil {
			logger.Error("failed to initialize RabbitMQ client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer mqClient.Close()
		events = mqClient

		if err := mqClient.ConsumeListEvents(rabbitmq.LogListEvent(logger)); err != nil {
			logger.Warn("failed to start list event consumer", slog.String("error", err.Error()))
		}
	} else {
		logger.Info("RABBITMQ_URL not set, list events are disabled")
	}

	// --- Application ---
	application, err := app.New(cfg, db, events, logger)
	if err != nil {
		logger.Error("failed to build application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := application.SeedAdmin(context.Background(), cfg, logger); err != nil {
		logger.Error("failed to seed admin user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	go func() {
		logger.Info("starting server", slog.String("addr", cfg.AppPort))
		if err := application.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	if err := application.Fiber.Shutdown(); err != nil {
		logger.Error("error during Fiber shutdown", slog.String("error", err.Error()))
	}
	logger.Info("server gracefully stopped")
}
