package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// PrincipalLocalKey is the key under which RequireAuth stores the authenticated Principal.
const PrincipalLocalKey = "principal"

// ErrInvalidToken is returned by an Authenticator for any token it does not accept.
var ErrInvalidToken = errors.New("invalid token")

// Principal identifies the caller of a request.
type Principal struct {
	Subject string
}

// Authenticator validates a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// JWTAuthenticator accepts HS256-signed JWTs carrying a subject.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWTAuthenticator for the shared secret.
func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Principal{Subject: claims.Subject}, nil
}

// RequireAuth rejects requests without a valid "Authorization: Bearer <token>" header.
func RequireAuth(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return fiber.ErrUnauthorized
		}

		p, err := a.Authenticate(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}
