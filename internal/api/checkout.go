package api

import (
	"context"

	"github.com/Egham-7/headshot-studio/internal/catalog"
	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/auth"

	"github.com/gofiber/fiber/v2"
)

// CheckoutCreator starts a hosted payment page for a plan
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error)
}

type CheckoutHandler struct {
	checkout CheckoutCreator
	plans    *catalog.Plans
}

func NewCheckoutHandler(checkout CheckoutCreator, plans *catalog.Plans) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		plans:    plans,
	}
}

// CreateCheckoutSessionRequest names the plan by processor price or by plan id
type CreateCheckoutSessionRequest struct {
	PriceID string `json:"priceId"`
	PlanID  string `json:"planId"`
}

type CreateCheckoutSessionResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession creates a Stripe checkout session for the caller
func (h *CheckoutHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: Invalid token",
		})
	}

	var req CreateCheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing or invalid priceId",
		})
	}

	plan, ok := h.resolvePlan(req)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing or invalid priceId",
		})
	}

	url, err := h.checkout.CreateCheckoutSession(c.UserContext(), userID, plan)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(CreateCheckoutSessionResponse{URL: url})
}

func (h *CheckoutHandler) resolvePlan(req CreateCheckoutSessionRequest) (models.Plan, bool) {
	if req.PriceID != "" {
		return h.plans.ByPriceID(req.PriceID)
	}
	if req.PlanID != "" {
		return h.plans.ByID(req.PlanID)
	}
	return models.Plan{}, false
}
