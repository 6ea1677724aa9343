package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

const testClerkSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type fakeInitializer struct {
	users []string
}

func (f *fakeInitializer) Balance(_ context.Context, userID string) (int, error) {
	f.users = append(f.users, userID)
	return 1, nil
}

func clerkRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()

	wh, err := svix.NewWebhook(secret)
	require.NoError(t, err)

	msgID := "msg_" + time.Now().Format("150405.000000")
	timestamp := time.Now()
	signature, err := wh.Sign(msgID, timestamp, payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/clerk-webhook", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", fmt.Sprint(timestamp.Unix()))
	req.Header.Set("svix-signature", signature)
	return req
}

func newClerkApp(t *testing.T, initializer CreditInitializer) *fiber.App {
	t.Helper()

	handler, err := NewClerkWebhookHandler(testClerkSecret, initializer)
	require.NoError(t, err)

	app := fiber.New()
	app.All("/api/clerk-webhook", AllowMethods(fiber.MethodPost), handler.HandleWebhook)
	return app
}

func clerkEvent(t *testing.T, eventType, userID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type": eventType,
		"data": map[string]any{"id": userID},
	})
	require.NoError(t, err)
	return payload
}

func TestClerkWebhookInitialisesNewUsers(t *testing.T) {
	initializer := &fakeInitializer{}
	app := newClerkApp(t, initializer)

	status, body := do(t, app, clerkRequest(t, clerkEvent(t, "user.created", "user_new"), testClerkSecret))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, []string{"user_new"}, initializer.users)
}

func TestClerkWebhookIgnoresOtherEvents(t *testing.T) {
	initializer := &fakeInitializer{}
	app := newClerkApp(t, initializer)

	status, _ := do(t, app, clerkRequest(t, clerkEvent(t, "user.updated", "user_new"), testClerkSecret))
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, initializer.users)
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	initializer := &fakeInitializer{}
	app := newClerkApp(t, initializer)

	status, body := do(t, app, clerkRequest(t, clerkEvent(t, "user.created", "user_new"), "whsec_dGhpcyBpcyBhIGRpZmZlcmVudCBrZXk="))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid webhook signature", body["error"])
	assert.Empty(t, initializer.users)
}
