package models

type GenerationProvider string

const (
	GenerationProviderGemini GenerationProvider = "gemini"
	GenerationProviderOpenAI GenerationProvider = "openai"
)

// GenerationConfig configures the external image model
type GenerationConfig struct {
	Provider  GenerationProvider `json:"provider" yaml:"provider"`
	APIKey    string             `json:"api_key" yaml:"api_key"`
	BaseURL   string             `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model     string             `json:"model,omitempty" yaml:"model,omitempty"`
	TimeoutMs int                `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	// PublicAPIKey is handed to the browser by the config endpoint.
	PublicAPIKey string `json:"public_api_key,omitempty" yaml:"public_api_key,omitempty"`
}
