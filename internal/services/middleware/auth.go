package middleware

import (
	"strings"

	"github.com/Egham-7/headshot-studio/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	errMissingAuthorization = "Unauthorized: Missing Authorization header"
	errInvalidToken         = "Unauthorized: Invalid token"
)

type AuthMiddleware struct {
	verifier auth.Verifier
	config   *AuthMiddlewareConfig
}

type AuthMiddlewareConfig struct {
	HeaderName string
}

func DefaultAuthMiddlewareConfig() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{
		HeaderName: fiber.HeaderAuthorization,
	}
}

func NewAuthMiddleware(verifier auth.Verifier, config *AuthMiddlewareConfig) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthMiddlewareConfig()
	}
	if config.HeaderName == "" {
		config.HeaderName = fiber.HeaderAuthorization
	}
	return &AuthMiddleware{
		verifier: verifier,
		config:   config,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity for downstream handlers.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": errMissingAuthorization,
			})
		}

		identity, err := m.verifier.Verify(c.UserContext(), token)
		if err != nil {
			fiberlog.Debugf("Token verification failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": errInvalidToken,
			})
		}

		auth.SetIdentity(c, identity)
		return c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(m.config.HeaderName))
	if header == "" || header == "Bearer" {
		return ""
	}
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return header
}
