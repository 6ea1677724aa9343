// Package credits owns the per-user "generations remaining" balance and the
// record of payment events that already granted credits.
package credits

import (
	"context"
	"errors"

	"github.com/Egham-7/headshot-studio/internal/models"
)

var (
	// ErrInsufficientCredits is returned when a debit would take the balance below zero
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidAmount is returned for zero or negative debits and credits
	ErrInvalidAmount = errors.New("credit amount must be positive")
)

// Store is the single source of truth for remaining generations.
type Store interface {
	// Ensure returns the user's balance, initialising a first-time user with
	// initial credits.
	Ensure(ctx context.Context, userID string, initial int) (int, error)
	// Debit removes amount from the balance and returns the new balance. It
	// never takes the balance below zero.
	Debit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error)
	// Credit adds amount to the balance and returns the new balance.
	Credit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error)
}

// EventCrediter is implemented by stores that can record a payment event and
// grant its credits atomically, closing the gap between claiming an event in
// an EventLedger and crediting the balance.
type EventCrediter interface {
	CreditEvent(ctx context.Context, provider, eventID, userID string, amount int, entry models.CreditEntry) (balance int, applied bool, err error)
}
