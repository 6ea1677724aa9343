package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string `json:"port,omitzero" yaml:"port"`
	AllowedOrigins string `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment    string `json:"environment,omitzero" yaml:"environment"`
	LogLevel       string `json:"log_level,omitzero" yaml:"log_level"`
	// AppURL is the browser application origin, used for checkout redirects.
	AppURL string `json:"app_url,omitzero" yaml:"app_url"`
	// RequestTimeoutMs bounds every request except image generation.
	RequestTimeoutMs int             `json:"request_timeout_ms,omitzero" yaml:"request_timeout_ms"`
	RateLimit        RateLimitConfig `json:"rate_limit,omitzero" yaml:"rate_limit"`
}
