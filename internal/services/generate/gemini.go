package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// GeminiGenerator calls Gemini's GenerateContent API asking for an image response
type GeminiGenerator struct {
	cfg         models.GenerationConfig
	clientCache *clientcache.Cache[*genai.Client]
}

func NewGeminiGenerator(cfg models.GenerationConfig) *GeminiGenerator {
	return &GeminiGenerator{
		cfg:         cfg,
		clientCache: clientcache.New[*genai.Client](),
	}
}

func (g *GeminiGenerator) client(ctx context.Context) (*genai.Client, error) {
	key := clientcache.Key(g.cfg.BaseURL, g.cfg.APIKey)
	return g.clientCache.GetOrCreate(key, func() (*genai.Client, error) {
		fiberlog.Debugf("Creating new Gemini client (config hash: %s)", key[:8])

		clientCfg := &genai.ClientConfig{
			APIKey:  g.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if g.cfg.BaseURL != "" {
			clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.cfg.BaseURL}
		}

		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, nil
	})
}

// Generate sends the image and prompt as a single multimodal request
func (g *GeminiGenerator) Generate(ctx context.Context, image []byte, mimeType, prompt string) (*Image, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, models.NewInternalError("image model unavailable", false, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}

	fiberlog.Infof("Making Gemini image request - model: %s", g.cfg.Model)

	startTime := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	duration := time.Since(startTime)
	if err != nil {
		fiberlog.Errorf("Gemini API request failed after %v: %v", duration, err)
		return nil, err
	}

	fiberlog.Infof("Gemini API request completed in %v", duration)
	return extractImage(resp)
}

// extractImage returns the first inline image of the response, or explains
// why there is none.
func extractImage(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil {
		return nil, ErrNoImage
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = http.DetectContentType(part.InlineData.Data)
				}
				return &Image{Data: part.InlineData.Data, MIMEType: mimeType}, nil
			}
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
	}

	if refusal := strings.TrimSpace(text.String()); refusal != "" {
		return nil, &RefusalError{Text: refusal}
	}
	return nil, ErrNoImage
}
