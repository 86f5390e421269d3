package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/transport/http/dto"
)

// ControllerHandler serves the device-facing API polled by kiosk controllers.
type ControllerHandler struct {
	gateway ports.HeartbeatGateway
	topups  ports.TopUpService
	logger  *logger.Logger
}

func NewControllerHandler(gateway ports.HeartbeatGateway, topups ports.TopUpService, logger *logger.Logger) *ControllerHandler {
	return &ControllerHandler{gateway: gateway, topups: topups, logger: logger}
}

func (h *ControllerHandler) Heartbeat(c *fiber.Ctx) error {
	deviceID := c.Params("controllerId")
	res, err := h.gateway.HandleHeartbeat(c.UserContext(), deviceID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.HeartbeatToResponse(res))
}

func (h *ControllerHandler) CommandExecuted(c *fiber.Ctx) error {
	result := c.Query("executionResult")
	if result == "" {
		result = h.reportBody(c).ExecutionResult
	}
	if err := h.gateway.HandleExecutionReport(c.UserContext(), c.Params("commandId"), ports.OutcomeExecuted, result); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StatusResponse{Status: "ok", Message: "Command marked as executed"})
}

func (h *ControllerHandler) CommandFailed(c *fiber.Ctx) error {
	detail := c.Query("errorMessage")
	if detail == "" {
		detail = h.reportBody(c).ErrorMessage
	}
	if err := h.gateway.HandleExecutionReport(c.UserContext(), c.Params("commandId"), ports.OutcomeFailed, detail); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StatusResponse{Status: "ok", Message: "Command marked as failed"})
}

// reportBody reads an optional JSON report. Devices often post no body at
// all, so parse failures just yield the zero value.
func (h *ControllerHandler) reportBody(c *fiber.Ctx) dto.ExecutionReportRequest {
	var req dto.ExecutionReportRequest
	if len(c.Body()) == 0 {
		return req
	}
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("execution_report_body_ignored", "command_id", c.Params("commandId"), "error", err)
	}
	return req
}

func (h *ControllerHandler) RegisterPayment(c *fiber.Ctx) error {
	var req dto.DevicePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("device_payment_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.topups.RegisterDevicePayment(c.UserContext(), ports.DevicePaymentInput{
		MacID:       req.MacID,
		PaymentType: domain.PaymentType(req.PaymentType),
		Amount:      amount,
		RFIDCardID:  req.RFIDCardID,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DevicePaymentResponse{
		Status:        "ok",
		TransactionID: res.Transaction.ID,
		Amount:        res.Transaction.Amount,
		KioskBalance:  res.KioskBalance,
	})
}
