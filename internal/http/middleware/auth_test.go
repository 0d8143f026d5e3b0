package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRequireAuth(t *testing.T) {
	const secret = "test-secret"
	app := fiber.New()
	app.Use(RequireAuth(NewJWTAuthenticator(secret)))
	app.Get("/private", func(c *fiber.Ctx) error {
		p := c.Locals(PrincipalLocalKey).(*Principal)
		return c.SendString(p.Subject)
	})

	valid := signToken(t, secret, jwt.RegisteredClaims{
		Subject:   "agent-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, secret, jwt.RegisteredClaims{
		Subject:   "agent-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongKey := signToken(t, "other", jwt.RegisteredClaims{
		Subject:   "agent-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noSubject := signToken(t, secret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, fiber.StatusUnauthorized},
		{"no subject", "Bearer " + noSubject, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
