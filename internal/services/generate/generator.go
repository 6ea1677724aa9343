package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egham-7/headshot-studio/internal/models"
)

// ErrNoImage is returned when the model answers with neither an image nor text.
var ErrNoImage = errors.New("The model did not return an image. This could be due to a safety policy violation or an issue with the prompt.")

// RefusalError is returned when the model answers with text instead of an
// image, typically a policy refusal or a request for clarification.
type RefusalError struct {
	Text string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("Model did not return an image. Response: \"%s\"", e.Text)
}

// Image is a generated image payload
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator sends one image and one instruction to an external model and
// returns one image.
type Generator interface {
	Generate(ctx context.Context, image []byte, mimeType, prompt string) (*Image, error)
}

// New builds the generator selected by configuration
func New(cfg models.GenerationConfig) (Generator, error) {
	switch cfg.Provider {
	case models.GenerationProviderGemini, "":
		return NewGeminiGenerator(cfg), nil
	case models.GenerationProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}
