package api

import (
	"github.com/Egham-7/headshot-studio/internal/config"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ConfigHandler hands the browser the public keys it needs to boot
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

type ConfigResponse struct {
	IdentityPublicKey string `json:"identityPublicKey"`
	ImageModelAPIKey  string `json:"imageModelApiKey"`
}

func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	var identityKey string
	if h.cfg.Auth.ClerkConfig != nil {
		identityKey = h.cfg.Auth.ClerkConfig.PublishableKey
	}
	imageKey := h.cfg.Generation.PublicAPIKey

	if identityKey == "" || imageKey == "" {
		fiberlog.Error("Missing required public configuration values on the server")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server configuration error. Please check environment variables.",
		})
	}

	return c.JSON(ConfigResponse{
		IdentityPublicKey: identityKey,
		ImageModelAPIKey:  imageKey,
	})
}
