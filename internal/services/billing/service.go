// Package billing sells generation credits through Stripe Checkout and
// grants them when Stripe confirms payment.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Egham-7/headshot-studio/internal/catalog"
	"github.com/Egham-7/headshot-studio/internal/metrics"
	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/credits"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// LedgerProvider namespaces Stripe events in the processed-event ledger
const LedgerProvider = "stripe"

const releaseTimeout = 5 * time.Second

const (
	eventCheckoutCompleted             = "checkout.session.completed"
	eventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// WebhookOutcome says what a delivered event did
type WebhookOutcome string

const (
	OutcomeCredited  WebhookOutcome = "credited"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomePending   WebhookOutcome = "pending"
	OutcomeDuplicate WebhookOutcome = "duplicate"
)

type WebhookResult struct {
	EventID   string
	EventType string
	UserID    string
	PlanID    string
	Credited  int
	Balance   int
	Outcome   WebhookOutcome
}

type Config struct {
	WebhookSecret string
	AppURL        string
}

type Service struct {
	cfg     Config
	gateway PaymentGateway
	plans   *catalog.Plans
	store   credits.Store
	ledger  credits.EventLedger
}

func NewService(cfg Config, gateway PaymentGateway, plans *catalog.Plans, store credits.Store, ledger credits.EventLedger) *Service {
	return &Service{
		cfg:     cfg,
		gateway: gateway,
		plans:   plans,
		store:   store,
		ledger:  ledger,
	}
}

// CreateCheckoutSession starts a hosted payment page for plan and returns its URL
func (s *Service) CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error) {
	if s.cfg.AppURL == "" {
		return "", models.NewConfigurationError("Server configuration error. Please check environment variables.")
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		UserID:     userID,
		PlanID:     plan.ID,
		PriceID:    plan.PriceID,
		SuccessURL: s.cfg.AppURL + "?payment=success",
		CancelURL:  s.cfg.AppURL,
	})
	if err != nil {
		fiberlog.Errorf("[%s] Failed to create checkout session for plan %s: %v", userID, plan.ID, err)
		return "", models.NewInternalError(err.Error(), false, err)
	}
	if sess.URL == "" {
		return "", models.NewInternalError("Could not create Stripe Checkout session.", false, nil)
	}

	fiberlog.Infof("[%s] Created checkout session %s for plan %s", userID, sess.ID, plan.ID)
	return sess.URL, nil
}

// HandleWebhook verifies and applies one Stripe event. Returned errors are
// AppErrors whose Retryable flag tells the sender whether to deliver again.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	result, err := s.handleWebhook(ctx, payload, signature)
	switch {
	case err == nil:
		metrics.RecordWebhook(LedgerProvider, string(result.Outcome))
		if result.Outcome == OutcomeCredited {
			metrics.RecordCreditsGranted(result.PlanID, result.Credited)
		}
	case models.AsAppError(err).IsRetryable():
		metrics.RecordWebhook(LedgerProvider, "failed")
	default:
		metrics.RecordWebhook(LedgerProvider, "rejected")
	}
	return result, err
}

func (s *Service) handleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		fiberlog.Warnf("Webhook signature verification failed: %v", err)
		return nil, models.NewValidationError("Webhook Error: "+err.Error(), err)
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Outcome:   OutcomeIgnored,
	}

	if result.EventType != eventCheckoutCompleted && result.EventType != eventCheckoutAsyncPaymentSucceeded {
		fiberlog.Debugf("[%s] Ignoring webhook event of type %s", event.ID, result.EventType)
		return result, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, models.NewValidationError("Webhook Error: Invalid checkout session payload.", err)
	}

	// Delayed payment methods complete unpaid and confirm later with the async event
	if result.EventType == eventCheckoutCompleted && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		fiberlog.Infof("[%s] Checkout session %s completed unpaid, waiting for payment", event.ID, sess.ID)
		result.Outcome = OutcomePending
		return result, nil
	}

	userID := sess.ClientReferenceID
	if userID == "" {
		userID = sess.Metadata["user_id"]
	}
	if userID == "" {
		fiberlog.Errorf("[%s] Webhook Error: Missing userId in session client_reference_id", event.ID)
		return nil, models.NewValidationError("Webhook Error: Missing user identifier.", nil)
	}
	result.UserID = userID

	priceID, err := s.gateway.FirstLineItemPriceID(ctx, sess.ID)
	if err != nil {
		fiberlog.Errorf("[%s] Failed to list line items for session %s: %v", event.ID, sess.ID, err)
		return nil, models.NewInternalError(err.Error(), true, err)
	}

	plan, ok := s.plans.ByPriceID(priceID)
	if !ok {
		fiberlog.Errorf("[%s] Webhook Error: Unrecognized priceId '%s'", event.ID, priceID)
		return nil, models.NewValidationError("Webhook Error: Unrecognized product purchased.", nil)
	}
	result.PlanID = plan.ID

	entry := models.CreditEntry{
		Type:        models.CreditTransactionPurchase,
		Reference:   event.ID,
		Description: fmt.Sprintf("%s plan purchase (session %s)", plan.Name, sess.ID),
	}

	balance, applied, err := s.creditOnce(ctx, event.ID, userID, plan.Credits, entry)
	if err != nil {
		fiberlog.Errorf("[%s] Error crediting user %s: %v", event.ID, userID, err)
		return nil, models.NewInternalError(err.Error(), true, err)
	}
	if !applied {
		fiberlog.Infof("[%s] Webhook event already processed for user %s, skipping", event.ID, userID)
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	result.Credited = plan.Credits
	result.Balance = balance
	result.Outcome = OutcomeCredited

	fiberlog.Infof("[%s] Successfully added %d credits to user %s. New total: %d", event.ID, plan.Credits, userID, balance)
	return result, nil
}

// creditOnce grants the credits of one event at most once. Stores that can
// record the event in the same transaction as the balance change do so;
// otherwise the event is claimed in the ledger first and released when the
// credit fails, so the processor's redelivery can try again.
func (s *Service) creditOnce(ctx context.Context, eventID, userID string, amount int, entry models.CreditEntry) (int, bool, error) {
	if crediter, ok := s.store.(credits.EventCrediter); ok {
		return crediter.CreditEvent(ctx, LedgerProvider, eventID, userID, amount, entry)
	}

	claimed, err := s.ledger.Claim(ctx, LedgerProvider, eventID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to claim webhook event: %w", err)
	}
	if !claimed {
		return 0, false, nil
	}

	balance, err := s.store.Credit(ctx, userID, amount, entry)
	if err != nil {
		// The request context may be what failed the credit
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if releaseErr := s.ledger.Release(releaseCtx, LedgerProvider, eventID); releaseErr != nil {
			fiberlog.Errorf("[%s] Failed to release webhook event: %v", eventID, releaseErr)
		}
		return 0, false, err
	}

	return balance, true, nil
}
