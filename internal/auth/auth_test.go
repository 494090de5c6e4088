package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseResolvesActor(t *testing.T) {
	cfg := Config{Secret: "test-secret"}
	actor := uuid.New()
	token := signToken(t, cfg.Secret, jwt.MapClaims{
		"sub": actor.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(token, cfg)
	require.NoError(t, err)
	require.Equal(t, actor, claims.Subject)
}

func TestParseRejectsBadTokens(t *testing.T) {
	cfg := Config{Secret: "test-secret"}

	_, err := Parse("", cfg)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse("not-a-jwt", cfg)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Wrong secret
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": uuid.NewString()})
	_, err = Parse(token, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Subject must be a UUID
	token = signToken(t, cfg.Secret, jwt.MapClaims{"sub": "alice"})
	_, err = Parse(token, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareStoresActor(t *testing.T) {
	cfg := Config{Secret: "test-secret"}
	actor := uuid.New()

	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(ActorID(c).String())
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, jwt.MapClaims{
		"sub": actor.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(Config{Secret: "test-secret"}))
	app.Get("/whoami", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
