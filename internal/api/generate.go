package api

import (
	"context"
	"encoding/base64"
	"io"
	"strings"

	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/auth"
	"github.com/Egham-7/headshot-studio/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const msgMissingInput = "Please upload an image and select a style and background."

// Generator runs one headshot generation for a user
type Generator interface {
	Generate(ctx context.Context, userID string, req models.GenerationRequest) (*models.GenerationResult, error)
}

type GenerateHandler struct {
	generator Generator
}

func NewGenerateHandler(generator Generator) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// GenerateRequest is the JSON form of a generation request. Image is base64,
// optionally as a data: URL.
type GenerateRequest struct {
	Image            string `json:"image"`
	MIMEType         string `json:"mimeType"`
	FilterID         string `json:"filterId"`
	BackgroundID     string `json:"backgroundId"`
	CustomBackground string `json:"customBackground"`
}

type GenerateResponse struct {
	ID              string `json:"id"`
	Image           string `json:"image"`
	MIMEType        string `json:"mimeType"`
	URL             string `json:"url,omitempty"`
	GenerationsLeft int    `json:"generationsLeft"`
	UpgradeRequired bool   `json:"upgradeRequired"`
}

// Generate accepts multipart/form-data (image file plus fields) or JSON
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: Invalid token",
		})
	}

	var (
		req models.GenerationRequest
		err error
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req, err = parseMultipart(c)
	} else {
		req, err = parseJSON(c)
	}
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.generator.Generate(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(GenerateResponse{
		ID:              result.ID,
		Image:           utils.DataURL(result.MIMEType, result.Image),
		MIMEType:        result.MIMEType,
		URL:             result.URL,
		GenerationsLeft: result.GenerationsLeft,
		UpgradeRequired: result.UpgradeRequired,
	})
}

func parseMultipart(c *fiber.Ctx) (models.GenerationRequest, error) {
	req := models.GenerationRequest{
		FilterID:         c.FormValue("filterId"),
		BackgroundID:     c.FormValue("backgroundId"),
		CustomBackground: c.FormValue("customBackground"),
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		// The orchestrator reports the missing image
		return req, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return req, models.NewValidationError("Failed to read uploaded image", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, models.NewValidationError("Failed to read uploaded image", err)
	}

	req.Image = data
	req.MIMEType = fileHeader.Header.Get(fiber.HeaderContentType)
	if mimeType := c.FormValue("mimeType"); mimeType != "" {
		req.MIMEType = mimeType
	}
	return req, nil
}

func parseJSON(c *fiber.Ctx) (models.GenerationRequest, error) {
	var body GenerateRequest
	if err := c.BodyParser(&body); err != nil {
		return models.GenerationRequest{}, models.NewValidationError("Invalid request body", err)
	}

	req := models.GenerationRequest{
		MIMEType:         body.MIMEType,
		FilterID:         body.FilterID,
		BackgroundID:     body.BackgroundID,
		CustomBackground: body.CustomBackground,
	}
	if body.Image == "" {
		return req, nil
	}

	encoded := body.Image
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return req, models.NewValidationError(msgMissingInput, nil)
		}
		if req.MIMEType == "" {
			req.MIMEType = strings.TrimSuffix(header, ";base64")
		}
		encoded = data
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return req, models.NewValidationError("Image must be base64 encoded", err)
	}
	req.Image = image
	return req, nil
}
