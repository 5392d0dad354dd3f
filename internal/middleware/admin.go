package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
)

// AdminRequired admits tokens issued to an admin whose email is still in
// ADMIN_EMAILS. Removing an email revokes its outstanding tokens.
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminEmails := cfg.AdminEmailList()

	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if actor.Role == models.RoleAdmin && contains(adminEmails, actor.Email) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
