package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/transport/http/dto"
	httpmw "github.com/ivey1207/supperapp/internal/transport/http/middleware"
)

// AdminHandler serves operator tooling: top-ups, the session list, the
// controller liveness list and the per-controller command ledger.
type AdminHandler struct {
	sessions ports.WashSessionManager
	topups   ports.TopUpService
	registry ports.ControllerRegistry
	queue    ports.CommandQueue
	logger   *logger.Logger
}

type AdminHandlerConfig struct {
	Sessions ports.WashSessionManager
	TopUps   ports.TopUpService
	Registry ports.ControllerRegistry
	Queue    ports.CommandQueue
	Logger   *logger.Logger
}

func NewAdminHandler(cfg AdminHandlerConfig) *AdminHandler {
	return &AdminHandler{
		sessions: cfg.Sessions,
		topups:   cfg.TopUps,
		registry: cfg.Registry,
		queue:    cfg.Queue,
		logger:   cfg.Logger,
	}
}

func (h *AdminHandler) TopUp(c *fiber.Ctx) error {
	var req dto.AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	kiosk, err := h.topups.TopUp(c.UserContext(), c.Params("kioskId"), amount, httpmw.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.KioskBalanceResponse{KioskID: kiosk.KioskID, Name: kiosk.Name, Balance: kiosk.Balance})
}

func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	filter := domain.SessionFilter{
		KioskID: strings.TrimSpace(c.Query("kioskId")),
		Limit:   c.QueryInt("limit"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := parseSessionStatus(raw)
		if !ok {
			return badRequest(c, "invalid status", raw)
		}
		filter.Status = status
	}
	sessions, err := h.sessions.ListSessions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionsToResponse(sessions))
}

func (h *AdminHandler) StopSession(c *fiber.Ctx) error {
	session, err := h.sessions.StopSession(c.UserContext(), c.Params("id"), domain.FinishReasonAdminStop)
	if err != nil {
		return respondError(c, err)
	}
	h.logger.Infow("admin_session_stopped", "session_id", session.ID, "admin_id", httpmw.UserID(c))
	return c.JSON(dto.SessionToResponse(session))
}

func (h *AdminHandler) ListControllers(c *fiber.Ctx) error {
	nodes, err := h.registry.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ControllersToResponse(nodes))
}

func (h *AdminHandler) ListCommands(c *fiber.Ctx) error {
	var status domain.CommandStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = domain.CommandStatus(strings.ToLower(raw))
		if !status.Valid() {
			return badRequest(c, "invalid status", raw)
		}
	}
	cmds, err := h.queue.List(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CommandsToResponse(cmds))
}

func (h *AdminHandler) EnqueueCommand(c *fiber.Ctx) error {
	var req dto.EnqueueCommandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return badRequest(c, "validation failed", errs...)
	}
	payload, err := req.ToPayload()
	if err != nil {
		return badRequest(c, "invalid payload", err.Error())
	}
	cmd, err := h.queue.Enqueue(c.UserContext(), c.Params("id"), payload, req.Priority)
	if err != nil {
		return respondError(c, err)
	}
	h.logger.Infow("admin_command_enqueued", "command_id", cmd.ID, "controller_id", cmd.ControllerID, "command_type", cmd.CommandType, "admin_id", httpmw.UserID(c))
	return c.Status(fiber.StatusCreated).JSON(dto.CommandToResponse(cmd))
}

func parseSessionStatus(raw string) (domain.SessionStatus, bool) {
	status := domain.SessionStatus(strings.ToUpper(raw))
	switch status {
	case domain.SessionStatusPending, domain.SessionStatusActive, domain.SessionStatusPaused,
		domain.SessionStatusFinished, domain.SessionStatusFailed:
		return status, true
	}
	return "", false
}
