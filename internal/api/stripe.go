package api

import (
	"context"

	"github.com/Egham-7/headshot-studio/internal/services/billing"

	"github.com/gofiber/fiber/v2"
)

// WebhookProcessor applies a signed payment event
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*billing.WebhookResult, error)
}

type StripeWebhookHandler struct {
	processor WebhookProcessor
}

func NewStripeWebhookHandler(processor WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{processor: processor}
}

// HandleWebhook processes Stripe webhook events. Errors the processor marks
// retryable answer 5xx so Stripe delivers the event again.
func (h *StripeWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	payload := append([]byte(nil), c.Body()...)

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Webhook Error: Missing Stripe-Signature header",
		})
	}

	if _, err := h.processor.HandleWebhook(c.UserContext(), payload, signature); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}
