package models

type AuthProviderType string

const (
	AuthProviderClerk AuthProviderType = "clerk"
	AuthProviderJWT   AuthProviderType = "jwt"
)

type AuthConfig struct {
	Provider    AuthProviderType `json:"provider" yaml:"provider"`
	ClerkConfig *ClerkAuthConfig `json:"clerk,omitempty" yaml:"clerk,omitempty"`
	JWTConfig   *JWTAuthConfig   `json:"jwt,omitempty" yaml:"jwt,omitempty"`
}

type ClerkAuthConfig struct {
	SecretKey      string `json:"secret_key" yaml:"secret_key"`
	PublishableKey string `json:"publishable_key" yaml:"publishable_key"`
	WebhookSecret  string `json:"webhook_secret" yaml:"webhook_secret"`
}

// JWTAuthConfig verifies HS256 tokens signed with a shared secret. Meant for
// local development and self-hosted deployments without Clerk.
type JWTAuthConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}
