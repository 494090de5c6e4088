package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"inventory-service/internal/services"
)

const InvalidUuidError = "invalid UUID"

// renderError maps the service error taxonomy onto HTTP responses. Unknown
// errors become a 500 without leaking internals beyond the message.
func renderError(c *fiber.Ctx, err error) error {
	var (
		notFound     *services.NotFoundError
		transition   *services.InvalidTransitionError
		insufficient *services.InsufficientStockError
		validation   *services.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": notFound.Error(),
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": true, "message": transition.Error(),
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     true,
			"message":   insufficient.Error(),
			"item_id":   insufficient.ItemID.String(),
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": validation.Error(),
		})
	}
	log.Printf("Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": "internal server error",
	})
}
