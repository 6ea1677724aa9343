package models

// RateLimitConfig bounds requests per client IP over a sliding window
type RateLimitConfig struct {
	Max               int `json:"max,omitzero" yaml:"max"`
	ExpirationSeconds int `json:"expiration_seconds,omitzero" yaml:"expiration_seconds"`
}
