package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort                = "8080"
	defaultLogLevel            = "info"
	defaultEnvironment         = "development"
	defaultGeminiModel         = "gemini-2.5-flash-image"
	defaultOpenAIModel         = "gpt-image-1"
	defaultGenerationTimeoutMs = 90_000
	defaultRequestTimeoutMs    = 30_000
	defaultRateLimitMax        = 300
	defaultRateLimitWindowSecs = 60
	defaultInitialCredits      = 1
	defaultRedisKeyPrefix      = "headshot:"
	defaultEventTTLHours       = 24 * 30
	defaultMetricsPath         = "/metrics"
)

// Config represents the complete application configuration
type Config struct {
	Server     models.ServerConfig     `yaml:"server"`
	Auth       models.AuthConfig       `yaml:"auth"`
	Generation models.GenerationConfig `yaml:"generation"`
	Billing    models.BillingConfig    `yaml:"billing"`
	Credits    models.CreditsConfig    `yaml:"credits"`
	Database   *models.DatabaseConfig  `yaml:"database,omitempty"`
	Redis      *models.RedisConfig     `yaml:"redis,omitempty"`
	Storage    *models.StorageConfig   `yaml:"storage,omitempty"`
	Metrics    models.MetricsConfig    `yaml:"metrics"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration after substituting environment variables
// and applies defaults.
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// ApplyDefaults fills in every optional setting left empty
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.Environment == "" {
		c.Server.Environment = defaultEnvironment
	}
	if c.Server.RequestTimeoutMs <= 0 {
		c.Server.RequestTimeoutMs = defaultRequestTimeoutMs
	}
	if c.Server.RateLimit.Max <= 0 {
		c.Server.RateLimit.Max = defaultRateLimitMax
	}
	if c.Server.RateLimit.ExpirationSeconds <= 0 {
		c.Server.RateLimit.ExpirationSeconds = defaultRateLimitWindowSecs
	}

	if c.Auth.Provider == "" {
		c.Auth.Provider = models.AuthProviderClerk
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = models.GenerationProviderGemini
	}
	if c.Generation.Model == "" {
		switch c.Generation.Provider {
		case models.GenerationProviderOpenAI:
			c.Generation.Model = defaultOpenAIModel
		default:
			c.Generation.Model = defaultGeminiModel
		}
	}
	if c.Generation.TimeoutMs <= 0 {
		c.Generation.TimeoutMs = defaultGenerationTimeoutMs
	}

	if c.Credits.Store == "" {
		if c.Database != nil {
			c.Credits.Store = models.CreditStoreDatabase
		} else {
			c.Credits.Store = models.CreditStoreClerk
		}
	}
	if c.Credits.InitialCredits <= 0 {
		c.Credits.InitialCredits = defaultInitialCredits
	}
	if c.Credits.EventRetentionHours <= 0 {
		c.Credits.EventRetentionHours = defaultEventTTLHours
	}

	if len(c.Billing.Plans) == 0 {
		c.Billing.Plans = []models.PlanConfig{
			{ID: "pro", Name: "Pro", Credits: 50, PriceLabel: "$19.99"},
			{ID: "business", Name: "Business", Credits: 150, PriceLabel: "$49.99"},
		}
	}

	if c.Redis != nil {
		if c.Redis.KeyPrefix == "" {
			c.Redis.KeyPrefix = defaultRedisKeyPrefix
		}
		if c.Redis.InFlightTTLMs <= 0 {
			// A stale lock must outlive the longest generation it guards
			c.Redis.InFlightTTLMs = c.Generation.TimeoutMs + 30_000
		}
		if c.Redis.EventTTLHours <= 0 {
			c.Redis.EventTTLHours = defaultEventTTLHours
		}
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}

	if c.Storage != nil && c.Storage.Prefix == "" {
		c.Storage.Prefix = "headshots"
	}
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GenerationTimeout bounds one call to the image model
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutMs) * time.Millisecond
}

// RequestTimeout bounds every other request
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutMs) * time.Millisecond
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}

	switch c.Auth.Provider {
	case models.AuthProviderClerk:
		if c.Auth.ClerkConfig == nil || c.Auth.ClerkConfig.SecretKey == "" {
			missing = append(missing, "auth.clerk.secret_key")
		}
	case models.AuthProviderJWT:
		if c.Auth.JWTConfig == nil || c.Auth.JWTConfig.Secret == "" {
			missing = append(missing, "auth.jwt.secret")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %s", c.Auth.Provider)
	}

	switch c.Generation.Provider {
	case models.GenerationProviderGemini, models.GenerationProviderOpenAI:
	default:
		return fmt.Errorf("unsupported generation provider: %s", c.Generation.Provider)
	}
	if c.Generation.APIKey == "" {
		missing = append(missing, "generation.api_key")
	}

	if c.Billing.SecretKey == "" {
		missing = append(missing, "billing.secret_key")
	}
	if c.Billing.WebhookSecret == "" {
		missing = append(missing, "billing.webhook_secret")
	}
	for i, plan := range c.Billing.Plans {
		if plan.ID == "" {
			missing = append(missing, fmt.Sprintf("billing.plans[%d].id", i))
		}
		if plan.PriceID == "" {
			missing = append(missing, fmt.Sprintf("billing.plans[%d].price_id", i))
		}
		if plan.Credits <= 0 {
			missing = append(missing, fmt.Sprintf("billing.plans[%d].credits", i))
		}
	}

	switch c.Credits.Store {
	case models.CreditStoreDatabase:
		if c.Database == nil {
			missing = append(missing, "database")
		}
	case models.CreditStoreClerk:
		if c.Auth.Provider != models.AuthProviderClerk {
			return fmt.Errorf("credits.store %q requires auth.provider %q", c.Credits.Store, models.AuthProviderClerk)
		}
	default:
		return fmt.Errorf("unsupported credit store: %s", c.Credits.Store)
	}

	if c.Redis != nil && c.Redis.URL == "" {
		missing = append(missing, "redis.url")
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
