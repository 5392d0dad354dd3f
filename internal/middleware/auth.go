package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
)

// TokenContextKey is the Locals key the verified *jwt.Token is stored under.
const TokenContextKey = "user"

// JWTProtected accepts only HS256 bearer tokens signed with the configured
// secret.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: TokenContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			msg := "Unauthorized: invalid or expired token"
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				msg = "Unauthorized: missing bearer token"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: msg,
			})
		},
	})
}
