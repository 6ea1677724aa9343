package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Egham-7/headshot-studio/internal/services/billing"
	"github.com/Egham-7/headshot-studio/internal/services/credits"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "whsec_api_test"

type fakeGateway struct {
	priceIDs map[string]string
}

func (f *fakeGateway) CreateCheckoutSession(context.Context, billing.CheckoutParams) (*billing.CheckoutSession, error) {
	return &billing.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}, nil
}

func (f *fakeGateway) FirstLineItemPriceID(_ context.Context, sessionID string) (string, error) {
	return f.priceIDs[sessionID], nil
}

type webhookFixture struct {
	app   *fiber.App
	store *credits.DatabaseStore
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, credits.AutoMigrate(db))

	store := credits.NewDatabaseStore(db)
	gateway := &fakeGateway{priceIDs: map[string]string{
		"cs_business": "price_business",
		"cs_retired":  "price_retired",
	}}

	service := billing.NewService(billing.Config{
		WebhookSecret: testWebhookSecret,
		AppURL:        "https://headshots.example.com",
	}, gateway, testPlans(t), store, credits.NewDatabaseLedger(db))

	app := fiber.New()
	app.All("/api/stripe-webhook", AllowMethods(fiber.MethodPost), NewStripeWebhookHandler(service).HandleWebhook)

	return &webhookFixture{app: app, store: store}
}

func checkoutCompleted(t *testing.T, eventID, sessionID, userID string) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":                  sessionID,
				"object":              "checkout.session",
				"client_reference_id": userID,
				"payment_status":      "paid",
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func webhookRequest(payload []byte, secret string) *http.Request {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeWebhookCreditsBusinessPlan(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	balance, err := f.store.Ensure(ctx, "user_1", 0)
	require.NoError(t, err)
	require.Equal(t, 0, balance)

	payload := checkoutCompleted(t, "evt_1", "cs_business", "user_1")
	status, body := do(t, f.app, webhookRequest(payload, testWebhookSecret))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"received": true}, body)

	balance, err = f.store.Ensure(ctx, "user_1", 0)
	require.NoError(t, err)
	assert.Equal(t, 150, balance)

	// Stripe redelivers the same event
	status, _ = do(t, f.app, webhookRequest(payload, testWebhookSecret))
	assert.Equal(t, http.StatusOK, status)

	balance, err = f.store.Ensure(ctx, "user_1", 0)
	require.NoError(t, err)
	assert.Equal(t, 150, balance)
}

func TestStripeWebhookRejections(t *testing.T) {
	tests := []struct {
		name      string
		request   func(t *testing.T) *http.Request
		wantError string
	}{
		{
			name: "missing signature",
			request: func(t *testing.T) *http.Request {
				payload := checkoutCompleted(t, "evt_2", "cs_business", "user_1")
				return httptest.NewRequest(http.MethodPost, "/api/stripe-webhook", bytes.NewReader(payload))
			},
			wantError: "Webhook Error: Missing Stripe-Signature header",
		},
		{
			name: "wrong secret",
			request: func(t *testing.T) *http.Request {
				return webhookRequest(checkoutCompleted(t, "evt_3", "cs_business", "user_1"), "whsec_other")
			},
		},
		{
			name: "unknown price",
			request: func(t *testing.T) *http.Request {
				return webhookRequest(checkoutCompleted(t, "evt_4", "cs_retired", "user_1"), testWebhookSecret)
			},
			wantError: "Webhook Error: Unrecognized product purchased.",
		},
		{
			name: "missing user",
			request: func(t *testing.T) *http.Request {
				return webhookRequest(checkoutCompleted(t, "evt_5", "cs_business", ""), testWebhookSecret)
			},
			wantError: "Webhook Error: Missing user identifier.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t)

			status, body := do(t, f.app, tt.request(t))
			assert.Equal(t, http.StatusBadRequest, status)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Contains(t, body["error"], "Webhook Error:")
			}

			balance, err := f.store.Ensure(context.Background(), "user_1", 0)
			require.NoError(t, err)
			assert.Equal(t, 0, balance)
		})
	}
}

func TestStripeWebhookRejectsGet(t *testing.T) {
	f := newWebhookFixture(t)

	status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, "/api/stripe-webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method Not Allowed", body["error"])
}
