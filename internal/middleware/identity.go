package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/services"
)

// CurrentActor returns the caller authenticated by JWTProtected.
func CurrentActor(c *fiber.Ctx) (models.Actor, bool) {
	token, ok := c.Locals(TokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return models.Actor{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, false
	}
	actor, err := services.ActorFromClaims(claims)
	if err != nil {
		return models.Actor{}, false
	}
	return actor, true
}

// ActorID is the id used to attribute log records, empty when anonymous.
func ActorID(c *fiber.Ctx) string {
	if actor, ok := CurrentActor(c); ok {
		return actor.ID.String()
	}
	return ""
}
