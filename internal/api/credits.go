package api

import (
	"context"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/auth"

	"github.com/gofiber/fiber/v2"
)

const defaultHistoryLimit = 50

// BalanceReader returns a user's balance, initialising first-time users
type BalanceReader interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// HistoryReader is implemented by credit stores that keep an audit trail
type HistoryReader interface {
	Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
}

type CreditsHandler struct {
	balances BalanceReader
	history  HistoryReader
}

// NewCreditsHandler builds the handler. history may be nil when the credit
// store keeps no transaction log.
func NewCreditsHandler(balances BalanceReader, history HistoryReader) *CreditsHandler {
	return &CreditsHandler{
		balances: balances,
		history:  history,
	}
}

type CreditsResponse struct {
	GenerationsLeft int  `json:"generationsLeft"`
	UpgradeRequired bool `json:"upgradeRequired"`
}

type TransactionResponse struct {
	Type         models.CreditTransactionType `json:"type"`
	Amount       int                          `json:"amount"`
	BalanceAfter int                          `json:"balanceAfter"`
	Description  string                       `json:"description,omitempty"`
	CreatedAt    time.Time                    `json:"createdAt"`
}

// GetCredits returns the caller's remaining generations. The first call for a
// new user grants the welcome credits.
func (h *CreditsHandler) GetCredits(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: Invalid token",
		})
	}

	balance, err := h.balances.Balance(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(CreditsResponse{
		GenerationsLeft: balance,
		UpgradeRequired: balance <= 0,
	})
}

// GetHistory lists the caller's credit transactions, newest first
func (h *CreditsHandler) GetHistory(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: Invalid token",
		})
	}

	if h.history == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Credit history is not available",
		})
	}

	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	transactions, err := h.history.Transactions(c.UserContext(), userID, limit)
	if err != nil {
		return respondError(c, models.NewInternalError("Failed to get credit history", true, err))
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, TransactionResponse{
			Type:         tx.Type,
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Description:  tx.Description,
			CreatedAt:    tx.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"transactions": response,
	})
}
