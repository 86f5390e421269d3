package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ivey1207/supperapp/internal/config"
	"github.com/ivey1207/supperapp/internal/core/services"
	"github.com/ivey1207/supperapp/internal/infrastructure/events"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/transport/http/dto"
	"github.com/ivey1207/supperapp/internal/transport/http/handlers"
	httpmw "github.com/ivey1207/supperapp/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Logger   *logger.Logger
	Config   *config.Config
	Services *services.Set
	Hub      *events.Hub
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	svc := cfg.Services

	controllerHandler := handlers.NewControllerHandler(svc.Gateway, svc.TopUps, cfg.Logger)
	appHandler := handlers.NewAppHandler(svc.Sessions, cfg.Logger)
	adminHandler := handlers.NewAdminHandler(handlers.AdminHandlerConfig{
		Sessions: svc.Sessions,
		TopUps:   svc.TopUps,
		Registry: svc.Registry,
		Queue:    svc.Queue,
		Logger:   cfg.Logger,
	})
	timelineHandler := handlers.NewTimelineHandler(svc.Timeline, cfg.Hub, cfg.Logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if cfg.Config.Metrics.Enabled {
		app.Get(cfg.Config.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Admin event stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/events", httpmw.RequireRole(cfg.Config, httpmw.RoleAdmin), websocket.New(timelineHandler.Stream))

	api := app.Group("/api/v1")

	// Controller routes (polled by kiosk hardware)
	controller := api.Group("/controller", httpmw.AgentAuth(cfg.Config))
	controller.Post("/heartbeat/:controllerId", controllerHandler.Heartbeat)
	controller.Post("/command/:commandId/executed", controllerHandler.CommandExecuted)
	controller.Post("/command/:commandId/failed", controllerHandler.CommandFailed)
	controller.Post("/payment", controllerHandler.RegisterPayment)

	// App routes
	appGroup := api.Group("/app")
	if n := cfg.Config.Features.RateLimitPerMinute; n > 0 {
		appGroup.Use(limiter.New(limiter.Config{
			Max:        n,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: "too many requests"})
			},
		}))
	}
	appGroup.Get("/kiosk/:kioskId", appHandler.KioskInfo)

	userAuth := httpmw.RequireRole(cfg.Config, httpmw.RoleUser, httpmw.RoleAdmin)
	appGroup.Post("/kiosk/:kioskId/start-session", userAuth, appHandler.StartSession)
	appGroup.Get("/wash-sessions/active", userAuth, appHandler.ActiveSession)
	appGroup.Get("/wash-sessions", userAuth, appHandler.History)
	appGroup.Post("/wash-sessions/:sessionId/stop", userAuth, appHandler.StopSession)
	appGroup.Post("/wash-sessions/:sessionId/pause", userAuth, appHandler.PauseSession)

	// Admin routes
	admin := api.Group("/admin", httpmw.RequireRole(cfg.Config, httpmw.RoleAdmin))
	admin.Post("/kiosks/:kioskId/top-up", adminHandler.TopUp)
	admin.Get("/wash-sessions", adminHandler.ListSessions)
	admin.Post("/wash-sessions/:id/stop", adminHandler.StopSession)
	admin.Get("/controllers", adminHandler.ListControllers)
	admin.Get("/controllers/:id/commands", adminHandler.ListCommands)
	admin.Post("/controllers/:id/commands", adminHandler.EnqueueCommand)
	admin.Get("/timeline", timelineHandler.GetEvents)
}
