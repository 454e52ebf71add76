// handlers/respond.go
package handlers

import (
	"errors"

	"mission-kpi-system/services"

	"github.com/gofiber/fiber/v2"
)

// errorResponse maps a service error kind to an HTTP status and the
// {"error","cause"} JSON shape used across the service.
func errorResponse(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrConflictRetry):
		status = fiber.StatusServiceUnavailable
		c.Set("Retry-After", "1")
	case errors.Is(err, services.ErrStorageUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"cause": err.Error(),
	})
}
