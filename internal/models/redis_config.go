package models

// RedisConfig enables the distributed generation guard and webhook event ledger
type RedisConfig struct {
	URL           string `json:"url" yaml:"url"`
	KeyPrefix     string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	InFlightTTLMs int    `json:"inflight_ttl_ms,omitempty" yaml:"inflight_ttl_ms,omitempty"`
	EventTTLHours int    `json:"event_ttl_hours,omitempty" yaml:"event_ttl_hours,omitempty"`
}
