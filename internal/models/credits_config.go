package models

type CreditStoreType string

const (
	CreditStoreDatabase CreditStoreType = "database"
	CreditStoreClerk    CreditStoreType = "clerk"
)

type CreditsConfig struct {
	Store          CreditStoreType `json:"store" yaml:"store"`
	InitialCredits int             `json:"initial_credits" yaml:"initial_credits"`
	// EventRetentionHours is how long processed payment events are kept in
	// the database ledger.
	EventRetentionHours int `json:"event_retention_hours,omitempty" yaml:"event_retention_hours,omitempty"`
}
