package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Egham-7/headshot-studio/internal/metrics"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	svix "github.com/svix/svix-webhooks/go"
)

// CreditInitializer grants a new user the welcome credits once
type CreditInitializer interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// ClerkWebhookHandler grants welcome credits when Clerk reports a new user,
// so the balance exists before the first sign-in.
type ClerkWebhookHandler struct {
	verifier *svix.Webhook
	credits  CreditInitializer
}

func NewClerkWebhookHandler(webhookSecret string, credits CreditInitializer) (*ClerkWebhookHandler, error) {
	verifier, err := svix.NewWebhook(webhookSecret)
	if err != nil {
		return nil, err
	}
	return &ClerkWebhookHandler{
		verifier: verifier,
		credits:  credits,
	}, nil
}

type ClerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ClerkUserData struct {
	ID string `json:"id"`
}

func (h *ClerkWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)

	headers := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	if err := h.verifier.Verify(payload, headers); err != nil {
		fiberlog.Warnf("Clerk webhook signature verification failed: %v", err)
		metrics.RecordWebhook("clerk", "rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	var event ClerkWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON payload",
		})
	}

	switch event.Type {
	case "user.created":
		var user ClerkUserData
		if err := json.Unmarshal(event.Data, &user); err != nil || user.ID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid user payload",
			})
		}

		balance, err := h.credits.Balance(c.UserContext(), user.ID)
		if err != nil {
			metrics.RecordWebhook("clerk", "failed")
			return respondError(c, err)
		}
		fiberlog.Infof("[%s] New user has %d generations", user.ID, balance)
		metrics.RecordWebhook("clerk", "initialized")
	default:
		fiberlog.Debugf("Ignoring Clerk webhook event of type %s", event.Type)
		metrics.RecordWebhook("clerk", "ignored")
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}
