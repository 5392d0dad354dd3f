package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/services"
	"github.com/labmoura/laudos/internal/validate"
)

// respondError maps service errors onto status codes. Anything unknown is
// returned to the app error handler, which logs it and answers 500.
func respondError(c *fiber.Ctx, err error) error {
	var verr validate.Errors
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Fields: verr,
		})
	}

	status := 0
	switch {
	case errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrFileNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrVersionConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAttachmentClaimed):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	default:
		return err
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}
