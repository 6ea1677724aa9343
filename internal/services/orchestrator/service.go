// Package orchestrator runs one headshot generation end to end: validation,
// the credit check, the model call and the debit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Egham-7/headshot-studio/internal/catalog"
	"github.com/Egham-7/headshot-studio/internal/metrics"
	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/credits"
	"github.com/Egham-7/headshot-studio/internal/services/generate"
	"github.com/Egham-7/headshot-studio/internal/services/guard"
	"github.com/Egham-7/headshot-studio/internal/services/prompt"
	"github.com/Egham-7/headshot-studio/internal/services/storage"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	msgMissingInput       = "Please upload an image and select a style and background."
	msgMissingCustomText  = "Please enter a custom background description."
	msgUnsupportedType    = "Unsupported image type. Please upload a PNG, JPEG or WEBP image."
	msgNoGenerationsLeft  = "You've used all your generations! Upgrade to generate more headshots."
	msgGenerationInFlight = "A headshot is already being generated. Please wait for it to finish."
)

var supportedMIMETypes = map[string]string{
	"image/png":  "image/png",
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/webp": "image/webp",
}

type Config struct {
	// Provider names the image model vendor in error codes
	Provider          string
	InitialCredits    int
	GenerationTimeout time.Duration
}

type Service struct {
	cfg       Config
	generator generate.Generator
	store     credits.Store
	guard     guard.Guard
	images    storage.ImageStore
}

// NewService wires the orchestrator. images may be nil, in which case results
// are only returned inline.
func NewService(cfg Config, generator generate.Generator, store credits.Store, g guard.Guard, images storage.ImageStore) *Service {
	if cfg.InitialCredits <= 0 {
		cfg.InitialCredits = 1
	}
	return &Service{
		cfg:       cfg,
		generator: generator,
		store:     store,
		guard:     g,
		images:    images,
	}
}

// Balance returns the user's remaining generations, granting the initial
// credits on first use.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := s.store.Ensure(ctx, userID, s.cfg.InitialCredits)
	if err != nil {
		fiberlog.Errorf("[%s] Failed to load credit balance: %v", userID, err)
		return 0, models.NewInternalError("Failed to load your remaining generations. Please try again.", true, err)
	}
	return balance, nil
}

// Generate produces one headshot and debits exactly one credit on success.
// Any failure leaves the balance untouched.
func (s *Service) Generate(ctx context.Context, userID string, req models.GenerationRequest) (*models.GenerationResult, error) {
	start := time.Now()
	result, err := s.generate(ctx, userID, req)
	metrics.RecordGeneration(s.cfg.Provider, outcome(err), time.Since(start).Seconds())
	return result, err
}

// outcome labels a generation attempt by its error category
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(models.AsAppError(err).Type)
}

func (s *Service) generate(ctx context.Context, userID string, req models.GenerationRequest) (*models.GenerationResult, error) {
	filter, background, mimeType, err := validate(req)
	if err != nil {
		return nil, err
	}

	builtPrompt, err := prompt.Build(filter, background, req.CustomBackground)
	if err != nil {
		return nil, models.NewValidationError(msgMissingCustomText, err)
	}

	release, err := s.guard.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, guard.ErrInFlight) {
			fiberlog.Warnf("[%s] Rejected concurrent generation request", userID)
			return nil, models.NewConflictError(msgGenerationInFlight, err)
		}
		return nil, models.NewInternalError("Failed to start generation. Please try again.", true, err)
	}
	defer release()

	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, models.NewPaymentRequiredError(msgNoGenerationsLeft)
	}

	generationID := uuid.NewString()
	fiberlog.Infof("[%s] Starting generation %s - style: %s, background: %s", userID, generationID, filter.ID, background.ID)

	image, err := s.callModel(ctx, req.Image, mimeType, builtPrompt)
	if err != nil {
		fiberlog.Errorf("[%s] Generation %s failed: %v", userID, generationID, err)
		return nil, s.generationError(ctx, err)
	}

	remaining, err := s.store.Debit(ctx, userID, 1, models.CreditEntry{
		Type:        models.CreditTransactionUsage,
		Reference:   generationID,
		Description: fmt.Sprintf("Headshot generation (%s, %s)", filter.Name, background.Name),
	})
	if err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			fiberlog.Warnf("[%s] Balance exhausted before generation %s could be charged", userID, generationID)
			return nil, models.NewPaymentRequiredError(msgNoGenerationsLeft)
		}
		fiberlog.Errorf("[%s] Failed to debit generation %s: %v", userID, generationID, err)
		return nil, models.NewInternalError("Failed to update your remaining generations. Please try again.", true, err)
	}

	result := &models.GenerationResult{
		ID:              generationID,
		Image:           image.Data,
		MIMEType:        image.MIMEType,
		GenerationsLeft: remaining,
		UpgradeRequired: remaining == 0,
	}

	if s.images != nil {
		url, err := s.images.Save(ctx, userID, generationID, image.Data, image.MIMEType)
		if err != nil {
			fiberlog.Warnf("[%s] Failed to store generation %s: %v", userID, generationID, err)
		} else {
			result.URL = url
		}
	}

	fiberlog.Infof("[%s] Generation %s completed, %d generations left", userID, generationID, remaining)
	return result, nil
}

func (s *Service) callModel(ctx context.Context, image []byte, mimeType, builtPrompt string) (*generate.Image, error) {
	if s.cfg.GenerationTimeout <= 0 {
		return s.generator.Generate(ctx, image, mimeType, builtPrompt)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	image, err := s.generator.Generate(genCtx, image, mimeType, builtPrompt)
	if err != nil && ctx.Err() == nil && errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return nil, models.NewTimeoutError("image generation", err)
	}
	return image, err
}

func (s *Service) generationError(ctx context.Context, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if ctx.Err() != nil {
		return models.NewInternalError("Request cancelled.", false, err)
	}
	provider := strings.ToUpper(s.cfg.Provider)
	if provider == "" {
		provider = "IMAGE_MODEL"
	}
	return models.NewProviderError(provider, err.Error(), err)
}

// validate checks the request in the order the user fills it in
func validate(req models.GenerationRequest) (models.Filter, models.Background, string, error) {
	if len(req.Image) == 0 || req.FilterID == "" || req.BackgroundID == "" {
		return models.Filter{}, models.Background{}, "", models.NewValidationError(msgMissingInput, nil)
	}

	mimeType := strings.ToLower(strings.TrimSpace(req.MIMEType))
	if mimeType == "" {
		mimeType = http.DetectContentType(req.Image)
	}
	normalized, ok := supportedMIMETypes[mimeType]
	if !ok {
		return models.Filter{}, models.Background{}, "", models.NewValidationError(msgUnsupportedType, nil)
	}

	filter, ok := catalog.FilterByID(req.FilterID)
	if !ok {
		return models.Filter{}, models.Background{}, "", models.NewValidationError(msgMissingInput, nil)
	}
	background, ok := catalog.BackgroundByID(req.BackgroundID)
	if !ok {
		return models.Filter{}, models.Background{}, "", models.NewValidationError(msgMissingInput, nil)
	}

	return filter, background, normalized, nil
}
