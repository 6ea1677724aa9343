package models

// BillingConfig configures the payment processor and the plan table shared by
// checkout and the payment webhook.
type BillingConfig struct {
	SecretKey     string       `json:"secret_key" yaml:"secret_key"`
	WebhookSecret string       `json:"webhook_secret" yaml:"webhook_secret"`
	Plans         []PlanConfig `json:"plans,omitempty" yaml:"plans,omitempty"`
}

type PlanConfig struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	PriceID    string `json:"price_id" yaml:"price_id"`
	Credits    int    `json:"credits" yaml:"credits"`
	PriceLabel string `json:"price_label,omitempty" yaml:"price_label,omitempty"`
}
