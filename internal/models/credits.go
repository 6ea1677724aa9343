package models

import "time"

type CreditTransactionType string

const (
	CreditTransactionInitial  CreditTransactionType = "initial"
	CreditTransactionPurchase CreditTransactionType = "purchase"
	CreditTransactionUsage    CreditTransactionType = "usage"
)

// UserCredit holds the generations remaining for one user
type UserCredit struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string    `gorm:"uniqueIndex;size:191;not null" json:"user_id"`
	Balance        int       `gorm:"not null;default:0" json:"balance"`
	TotalPurchased int       `gorm:"not null;default:0" json:"total_purchased"`
	TotalUsed      int       `gorm:"not null;default:0" json:"total_used"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type CreditTransaction struct {
	ID           uint                  `gorm:"primaryKey;autoIncrement"`
	UserID       string                `gorm:"index;size:191"`
	Type         CreditTransactionType `gorm:"index;size:32"`
	Amount       int
	BalanceAfter int
	Reference    string `gorm:"index;size:191"`
	Description  string
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

// ProcessedWebhookEvent records payment events that already credited an
// account so redelivery does not credit twice.
type ProcessedWebhookEvent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Provider    string    `gorm:"size:32;not null;uniqueIndex:ux_webhook_provider_event,priority:1"`
	EventID     string    `gorm:"size:191;not null;uniqueIndex:ux_webhook_provider_event,priority:2"`
	ProcessedAt time.Time `gorm:"autoCreateTime;index"`
}

// CreditEntry describes why a balance changes
type CreditEntry struct {
	Type        CreditTransactionType
	Reference   string
	Description string
}
