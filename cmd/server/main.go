package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ivey1207/supperapp/internal/config"
	"github.com/ivey1207/supperapp/internal/core/services"
	"github.com/ivey1207/supperapp/internal/infrastructure/events"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/metrics"
	"github.com/ivey1207/supperapp/internal/infrastructure/storage"
	"github.com/ivey1207/supperapp/internal/seed"
	transporthttp "github.com/ivey1207/supperapp/internal/transport/http"
	httpmw "github.com/ivey1207/supperapp/internal/transport/http/middleware"
	"github.com/shopspring/decimal"
)

func main() {
	// Kiosk firmware and the app parse money fields as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	configPath := flag.String("config", "", "path to config.yaml")
	seedPath := flag.String("seed", "", "optional seed file loaded at startup")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = "config/config.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = "../config/config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	backend, err := storage.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	if *seedPath != "" {
		file, err := seed.LoadFile(*seedPath)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		res, err := seed.Apply(context.Background(), backend.Deps.Kiosks, backend.Deps.Programs, file)
		if err != nil {
			log.Fatalf("failed to apply seed: %v", err)
		}
		log.Infow("seed_applied", "kiosks", res.Kiosks, "programs", res.Programs, "skipped", res.Skipped)
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	hub := events.NewHub()
	deps := backend.Deps
	deps.Broadcaster = hub
	deps.Logger = log
	deps.EnableLocks = cfg.Features.EnableLocks
	set := services.Build(deps)

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:3000"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Agent-Token, " + cfg.Features.RequestIDHeader,
		AllowMethods: "GET, POST, HEAD, PUT, DELETE, PATCH",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Logger:   log,
		Config:   cfg,
		Services: set,
		Hub:      hub,
	})

	addr := cfg.Server.Address()
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Infow("server_started", "addr", addr, "storage", backend.Driver)

	gracefulShutdown(app, backend, log)
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code < fiber.StatusInternalServerError {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		}

		msg := err.Error()
		if code == fiber.StatusInternalServerError {
			msg = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error": msg,
		})
	}
}

func gracefulShutdown(app *fiber.App, backend *storage.Backend, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	if err := backend.Close(); err != nil {
		log.Errorf("failed to close database connection: %v", err)
	}

	log.Info("server exited gracefully")
}
