package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIGenerator uses the image edit endpoint, which takes a source image and
// an instruction and returns a new image.
type OpenAIGenerator struct {
	cfg         models.GenerationConfig
	clientCache *clientcache.Cache[*openai.Client]
}

func NewOpenAIGenerator(cfg models.GenerationConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		cfg:         cfg,
		clientCache: clientcache.New[*openai.Client](),
	}
}

func (g *OpenAIGenerator) client() (*openai.Client, error) {
	key := clientcache.Key(g.cfg.BaseURL, g.cfg.APIKey)
	return g.clientCache.GetOrCreate(key, func() (*openai.Client, error) {
		opts := []option.RequestOption{option.WithAPIKey(g.cfg.APIKey)}
		if g.cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(g.cfg.BaseURL))
		}
		client := openai.NewClient(opts...)
		return &client, nil
	})
}

func (g *OpenAIGenerator) Generate(ctx context.Context, image []byte, mimeType, prompt string) (*Image, error) {
	client, err := g.client()
	if err != nil {
		return nil, models.NewInternalError("image model unavailable", false, err)
	}

	params := openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(image), "source"+extensionFor(mimeType), mimeType),
		},
		Prompt: prompt,
		Model:  openai.ImageModel(g.cfg.Model),
	}

	fiberlog.Infof("Making OpenAI image edit request - model: %s", g.cfg.Model)

	startTime := time.Now()
	resp, err := client.Images.Edit(ctx, params)
	duration := time.Since(startTime)
	if err != nil {
		fiberlog.Errorf("OpenAI image edit failed after %v: %v", duration, err)
		return nil, err
	}

	fiberlog.Infof("OpenAI image edit completed in %v", duration)
	return decodeOpenAIImage(resp)
}

func decodeOpenAIImage(resp *openai.ImagesResponse) (*Image, error) {
	if resp == nil {
		return nil, ErrNoImage
	}
	for _, img := range resp.Data {
		if img.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		return &Image{Data: data, MIMEType: http.DetectContentType(data)}, nil
	}
	return nil, ErrNoImage
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
