package api

import (
	"strings"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// respondError writes err as {"error": message}. Payment-required errors also
// tell the browser to send the user to the pricing page.
func respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)

	status := appErr.GetStatusCode()
	if status >= fiber.StatusInternalServerError {
		fiberlog.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"error": appErr.Message,
	}
	if appErr.Code != "" {
		body["code"] = appErr.Code
	}
	if appErr.Type == models.ErrorTypePaymentRequired {
		body["redirect"] = "pricing"
		body["generationsLeft"] = 0
	}

	return c.Status(status).JSON(body)
}

// AllowMethods answers 405 with an Allow header for any other method. It lets
// routes registered with app.All keep a JSON error body.
func AllowMethods(methods ...string) fiber.Handler {
	allowed := strings.Join(methods, ", ")
	return func(c *fiber.Ctx) error {
		for _, method := range methods {
			if c.Method() == method {
				return c.Next()
			}
		}
		c.Set(fiber.HeaderAllow, allowed)
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "Method Not Allowed",
		})
	}
}
