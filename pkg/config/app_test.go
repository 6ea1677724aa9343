package config

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Egham-7/headshot-studio/internal/config"
	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "app-test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Server: models.ServerConfig{
			AllowedOrigins: "http://localhost:5173",
			AppURL:         "http://localhost:5173",
			LogLevel:       "error",
		},
		Auth: models.AuthConfig{
			Provider:  models.AuthProviderJWT,
			JWTConfig: &models.JWTAuthConfig{Secret: testJWTSecret},
		},
		Generation: models.GenerationConfig{APIKey: "gemini-test-key"},
		Billing: models.BillingConfig{
			SecretKey:     "sk_test_123",
			WebhookSecret: "whsec_123",
			Plans: []models.PlanConfig{
				{ID: "pro", Name: "Pro", PriceID: "price_pro", Credits: 50},
				{ID: "business", Name: "Business", PriceID: "price_business", Credits: 150},
			},
		},
		Database: &models.DatabaseConfig{
			Type:     models.SQLite,
			FilePath: filepath.Join(t.TempDir(), "headshots.db"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func setupApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	app := NewApp(cfg)
	require.NoError(t, app.Setup())
	t.Cleanup(app.Close)
	return app.Fiber()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()

	verifier, err := auth.NewSharedSecretVerifier(testJWTSecret, "")
	require.NoError(t, err)
	token, err := verifier.Issue(userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestNewAppPanicsWithoutConfig(t *testing.T) {
	assert.Panics(t, func() { NewApp(nil) })
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Billing.SecretKey = ""

	err := NewApp(cfg).Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing.secret_key")
}

func TestAppServesCredits(t *testing.T) {
	app := setupApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/credits", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, "user_1"))
	status, body := call(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["generationsLeft"])
	assert.Equal(t, false, body["upgradeRequired"])

	req = httptest.NewRequest(http.MethodGet, "/api/credits/history", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, "user_1"))
	status, body = call(t, app, req)
	require.Equal(t, http.StatusOK, status)
	transactions := body["transactions"].([]any)
	require.Len(t, transactions, 1)
	assert.Equal(t, "initial", transactions[0].(map[string]any)["type"])
}

func TestAppRoutes(t *testing.T) {
	app := setupApp(t, testConfig(t))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"welcome", http.MethodGet, "/", http.StatusOK},
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"catalog", http.MethodGet, "/api/catalog", http.StatusOK},
		{"credits without token", http.MethodGet, "/api/credits", http.StatusUnauthorized},
		{"generate without token", http.MethodPost, "/api/generate", http.StatusUnauthorized},
		{"checkout without token", http.MethodPost, "/api/create-checkout-session", http.StatusUnauthorized},
		{"checkout wrong method", http.MethodGet, "/api/create-checkout-session", http.StatusMethodNotAllowed},
		{"config wrong method", http.MethodPost, "/api/config", http.StatusMethodNotAllowed},
		{"webhook wrong method", http.MethodGet, "/api/stripe-webhook", http.StatusMethodNotAllowed},
		{"webhook without signature", http.MethodPost, "/api/stripe-webhook", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, app, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestAppHealthReportsDatabase(t *testing.T) {
	app := setupApp(t, testConfig(t))

	status, body := call(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"database": "healthy"}, body["checks"])
}

func TestSetupSchedulesEventPruningWithDatabase(t *testing.T) {
	app := NewApp(testConfig(t))
	require.NoError(t, app.Setup())
	t.Cleanup(app.Close)

	assert.NotNil(t, app.pruner)
}

func TestAppExposesMetricsWhenEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	app := setupApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `headshot_http_requests_total{method="GET",route="/health",status="200"}`)
}
