package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
  allowed_origins: "http://localhost:5173"
  app_url: ${TEST_APP_URL:-http://localhost:5173}
auth:
  provider: clerk
  clerk:
    secret_key: ${TEST_CLERK_SECRET}
    publishable_key: pk_test_123
generation:
  api_key: ${TEST_GEMINI_KEY:-gemini-default}
billing:
  secret_key: sk_test_123
  webhook_secret: whsec_123
  plans:
    - id: pro
      name: Pro
      price_id: price_pro
      credits: 50
    - id: business
      name: Business
      price_id: price_business
      credits: 150
database:
  type: sqlite
  file_path: ":memory:"
`

func TestParseSubstitutesEnvironment(t *testing.T) {
	t.Setenv("TEST_CLERK_SECRET", "sk_clerk_live")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5173", cfg.Server.AppURL)
	assert.Equal(t, "sk_clerk_live", cfg.Auth.ClerkConfig.SecretKey)
	assert.Equal(t, "gemini-default", cfg.Generation.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, models.GenerationProviderGemini, cfg.Generation.Provider)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Generation.Model)
	assert.Equal(t, models.CreditStoreDatabase, cfg.Credits.Store)
	assert.Equal(t, 1, cfg.Credits.InitialCredits)
	assert.Equal(t, 720, cfg.Credits.EventRetentionHours)
	assert.Equal(t, 300, cfg.Server.RateLimit.Max)
	assert.Equal(t, 60, cfg.Server.RateLimit.ExpirationSeconds)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.GetNormalizedLogLevel())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, int64(90_000), cfg.GenerationTimeout().Milliseconds())
}

func TestDefaultStoreIsClerkWithoutDatabase(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, models.CreditStoreClerk, cfg.Credits.Store)
	require.Len(t, cfg.Billing.Plans, 2)
	assert.Equal(t, 50, cfg.Billing.Plans[0].Credits)
	assert.Equal(t, 150, cfg.Billing.Plans[1].Credits)
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.MissingFields, "server.allowed_origins")
	assert.Contains(t, validationErr.MissingFields, "auth.clerk.secret_key")
	assert.Contains(t, validationErr.MissingFields, "generation.api_key")
	assert.Contains(t, validationErr.MissingFields, "billing.secret_key")
	assert.Contains(t, validationErr.MissingFields, "billing.plans[0].price_id")
}

func TestValidateRejectsClerkStoreWithJWTAuth(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	cfg.Auth.Provider = models.AuthProviderJWT
	cfg.Auth.JWTConfig = &models.JWTAuthConfig{Secret: "secret"}
	cfg.Credits.Store = models.CreditStoreClerk

	assert.Error(t, cfg.Validate())
}

func TestLoadFromFileRejectsBadPaths(t *testing.T) {
	_, err := LoadFromFile("../config.yaml")
	assert.Error(t, err)

	_, err = LoadFromFile("config.json")
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price_business", cfg.Billing.Plans[1].PriceID)
}
