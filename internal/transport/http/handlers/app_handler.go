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

// AppHandler serves the mobile app: kiosk lookup after a QR scan and the
// user's own wash sessions.
type AppHandler struct {
	sessions ports.WashSessionManager
	logger   *logger.Logger
}

func NewAppHandler(sessions ports.WashSessionManager, logger *logger.Logger) *AppHandler {
	return &AppHandler{sessions: sessions, logger: logger}
}

func (h *AppHandler) KioskInfo(c *fiber.Ctx) error {
	info, err := h.sessions.GetDeviceInfo(c.UserContext(), c.Params("kioskId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DeviceInfoToResponse(info))
}

func (h *AppHandler) StartSession(c *fiber.Ctx) error {
	var req dto.AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	session, err := h.sessions.StartSession(c.UserContext(), c.Params("kioskId"), httpmw.UserID(c), amount)
	if err != nil {
		h.logger.Warnw("app_start_session_rejected", "kiosk_id", c.Params("kioskId"), "user_id", httpmw.UserID(c), "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SessionToResponse(session))
}

func (h *AppHandler) StopSession(c *fiber.Ctx) error {
	var req dto.StopSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if ok, err := h.authorizeSession(c); !ok {
		return err
	}
	session, err := h.sessions.StopSession(c.UserContext(), c.Params("sessionId"), strings.TrimSpace(req.Reason))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionToResponse(session))
}

func (h *AppHandler) PauseSession(c *fiber.Ctx) error {
	var req dto.PauseSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Pause == nil {
		return badRequest(c, "pause is required")
	}
	if ok, err := h.authorizeSession(c); !ok {
		return err
	}
	session, err := h.sessions.PauseSession(c.UserContext(), c.Params("sessionId"), *req.Pause)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionToResponse(session))
}

func (h *AppHandler) ActiveSession(c *fiber.Ctx) error {
	session, err := h.sessions.ActiveSessionForUser(c.UserContext(), httpmw.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionToResponse(session))
}

func (h *AppHandler) History(c *fiber.Ctx) error {
	sessions, err := h.sessions.ListSessions(c.UserContext(), domain.SessionFilter{
		UserID: httpmw.UserID(c),
		Limit:  c.QueryInt("limit"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SessionsToResponse(sessions))
}

// authorizeSession lets users act only on their own sessions. Operators may
// act on any. When ok is false the response has already been written.
func (h *AppHandler) authorizeSession(c *fiber.Ctx) (bool, error) {
	if c.Locals(httpmw.LocalRole) == httpmw.RoleAdmin {
		return true, nil
	}
	session, err := h.sessions.GetSession(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return false, respondError(c, err)
	}
	if session.UserID != httpmw.UserID(c) {
		h.logger.Warnw("app_session_access_denied", "session_id", session.ID, "user_id", httpmw.UserID(c))
		return false, c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "forbidden"})
	}
	return true, nil
}
