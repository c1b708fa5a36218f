package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/apperrors"
)

// respondError maps any error onto the HTTP response in one place. Errors
// outside the apperrors taxonomy become a generic 500 with no internal
// detail leaked to the client.
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperrors.From(err)
	if appErr.Status >= 500 {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(appErr.Status).JSON(fiber.Map{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
