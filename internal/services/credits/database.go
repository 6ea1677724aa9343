package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egham-7/headshot-studio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate creates the credit tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserCredit{},
		&models.CreditTransaction{},
		&models.ProcessedWebhookEvent{},
	)
}

// DatabaseStore keeps balances in a relational table. Every mutation is a
// single conditional UPDATE inside a transaction, so concurrent debits and
// credits from different processes cannot lose updates.
type DatabaseStore struct {
	db *gorm.DB
}

var _ EventCrediter = (*DatabaseStore)(nil)

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Ensure(ctx context.Context, userID string, initial int) (int, error) {
	var credit models.UserCredit

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := createIfMissing(tx, userID, initial)
		if err != nil {
			return err
		}

		if created && initial > 0 {
			if err := tx.Create(&models.CreditTransaction{
				UserID:       userID,
				Type:         models.CreditTransactionInitial,
				Amount:       initial,
				BalanceAfter: initial,
				Description:  "Welcome credits",
			}).Error; err != nil {
				return fmt.Errorf("failed to create credit transaction: %w", err)
			}
		}

		return tx.Where("user_id = ?", userID).First(&credit).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get user credit: %w", err)
	}

	return credit.Balance, nil
}

func (s *DatabaseStore) Debit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserCredit{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", amount),
				"total_used": gorm.Expr("total_used + ?", amount),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update credit balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientCredits
		}

		var err error
		balance, err = currentBalance(tx, userID)
		if err != nil {
			return err
		}

		return recordTransaction(tx, userID, -amount, balance, entry, models.CreditTransactionUsage)
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (s *DatabaseStore) Credit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = applyCredit(tx, userID, amount, entry)
		return err
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// CreditEvent records the payment event and applies its credit in one
// transaction. A rolled back credit leaves no event row behind, and an event
// seen before credits nothing and reports applied as false.
func (s *DatabaseStore) CreditEvent(ctx context.Context, provider, eventID, userID string, amount int, entry models.CreditEntry) (int, bool, error) {
	if amount <= 0 {
		return 0, false, ErrInvalidAmount
	}

	var (
		balance int
		applied bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProcessedWebhookEvent{Provider: provider, EventID: eventID})
		if result.Error != nil {
			return fmt.Errorf("failed to record webhook event: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var err error
		balance, err = applyCredit(tx, userID, amount, entry)
		applied = err == nil
		return err
	})
	if err != nil {
		return 0, false, err
	}

	return balance, applied, nil
}

func applyCredit(tx *gorm.DB, userID string, amount int, entry models.CreditEntry) (int, error) {
	if _, err := createIfMissing(tx, userID, 0); err != nil {
		return 0, err
	}

	updates := map[string]any{
		"balance": gorm.Expr("balance + ?", amount),
	}
	if entry.Type == models.CreditTransactionPurchase {
		updates["total_purchased"] = gorm.Expr("total_purchased + ?", amount)
	}

	if err := tx.Model(&models.UserCredit{}).
		Where("user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return 0, fmt.Errorf("failed to update credit balance: %w", err)
	}

	balance, err := currentBalance(tx, userID)
	if err != nil {
		return 0, err
	}

	return balance, recordTransaction(tx, userID, amount, balance, entry, models.CreditTransactionPurchase)
}

// createIfMissing inserts a balance row unless one exists and reports whether
// it inserted. Concurrent callers race on the unique index, not on a read.
func createIfMissing(tx *gorm.DB, userID string, initial int) (bool, error) {
	credit := models.UserCredit{UserID: userID, Balance: initial}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&credit)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create user credit: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func currentBalance(tx *gorm.DB, userID string) (int, error) {
	var credit models.UserCredit
	if err := tx.Where("user_id = ?", userID).First(&credit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("user credit for %s disappeared: %w", userID, err)
		}
		return 0, fmt.Errorf("failed to read credit balance: %w", err)
	}
	return credit.Balance, nil
}

func recordTransaction(tx *gorm.DB, userID string, amount, balanceAfter int, entry models.CreditEntry, fallback models.CreditTransactionType) error {
	txType := entry.Type
	if txType == "" {
		txType = fallback
	}

	if err := tx.Create(&models.CreditTransaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reference:    entry.Reference,
		Description:  entry.Description,
	}).Error; err != nil {
		return fmt.Errorf("failed to create credit transaction: %w", err)
	}
	return nil
}

// Transactions lists a user's credit history, newest first
func (s *DatabaseStore) Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	var transactions []models.CreditTransaction

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return transactions, nil
}
