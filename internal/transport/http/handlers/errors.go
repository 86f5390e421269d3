package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ivey1207/supperapp/internal/core/services"
	"github.com/ivey1207/supperapp/internal/transport/http/dto"
)

var notFoundErrors = []error{
	services.ErrControllerNotFound,
	services.ErrCommandNotFound,
	services.ErrKioskNotFound,
	services.ErrSessionNotFound,
}

var badRequestErrors = []error{
	services.ErrSessionAlreadyActive,
	services.ErrSessionAlreadyFinished,
	services.ErrSessionInvalidTransition,
	services.ErrInvalidAmount,
	services.ErrCommandInvalidInput,
	services.ErrKioskInvalidInput,
	dto.ErrInvalidAmount,
}

// errorStatus maps service sentinels onto HTTP statuses. Zero means the
// error is unexpected.
func errorStatus(err error) int {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fiber.StatusNotFound
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}
	return 0
}

// respondError writes known errors as {"error": ...} and hands everything
// else to the global error handler.
func respondError(c *fiber.Ctx, err error) error {
	if code := errorStatus(err); code != 0 {
		return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return err
}

func badRequest(c *fiber.Ctx, msg string, details ...string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, Details: details})
}
