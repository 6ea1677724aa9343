package auth

import (
	"github.com/gofiber/fiber/v2"
)

const identityLocalsKey = "auth_identity"

// SetIdentity stores the verified caller on the request
func SetIdentity(c *fiber.Ctx, identity *Identity) {
	c.Locals(identityLocalsKey, identity)
}

func GetIdentity(c *fiber.Ctx) *Identity {
	identity, ok := c.Locals(identityLocalsKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

func GetUserID(c *fiber.Ctx) (string, bool) {
	identity := GetIdentity(c)
	if identity == nil {
		return "", false
	}
	return identity.UserID, identity.UserID != ""
}
