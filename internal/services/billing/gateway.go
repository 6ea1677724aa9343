package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// CheckoutParams describes a one-off purchase of a single plan
type CheckoutParams struct {
	UserID     string
	PlanID     string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway is the slice of the payment processor's API the service needs
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	// FirstLineItemPriceID returns the price of the session's first line item,
	// or "" when the session has none.
	FirstLineItemPriceID(ctx context.Context, sessionID string) (string, error)
}

type StripeGateway struct {
	client *client.API
}

// NewStripeGateway builds a gateway for secretKey. backends may be nil to use
// Stripe's production endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	return &StripeGateway{
		client: client.New(secretKey, backends),
	}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.UserID),
		Metadata: map[string]string{
			"user_id": params.UserID,
			"plan_id": params.PlanID,
		},
	}
	sessionParams.Context = ctx

	sess, err := g.client.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) FirstLineItemPriceID(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := g.client.CheckoutSessions.ListLineItems(params)
	if iter.Next() {
		item := iter.LineItem()
		if item.Price == nil {
			return "", nil
		}
		return item.Price.ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list checkout line items: %w", err)
	}
	return "", nil
}
