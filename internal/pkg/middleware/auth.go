package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// RequireOrganization ensures an authenticated organization and returns JSON 401 otherwise.
func RequireOrganization(c *fiber.Ctx) error {
	if !orgcontext.IsAuthenticated(c) {
		return unauthorized(c)
	}
	return c.Next()
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": "organization required",
	})
}
