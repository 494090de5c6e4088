package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const actorLocal = "auth-actor-id"

// Middleware returns a fiber handler that verifies the bearer token and
// stores the actor id on the request context.
func Middleware(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, ErrMissingToken)
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return unauthorized(c, ErrInvalidToken)
		}
		claims, err := Parse(header[len("bearer "):], cfg)
		if err != nil {
			return unauthorized(c, err)
		}
		c.Locals(actorLocal, claims.Subject)
		return c.Next()
	}
}

// ActorID returns the actor stored by Middleware. It is the zero UUID on
// routes the middleware does not cover.
func ActorID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(actorLocal).(uuid.UUID)
	return id
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": true, "message": err.Error(),
	})
}
