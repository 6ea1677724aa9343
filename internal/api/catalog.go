package api

import (
	"github.com/Egham-7/headshot-studio/internal/catalog"
	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	plans *catalog.Plans
}

func NewCatalogHandler(plans *catalog.Plans) *CatalogHandler {
	return &CatalogHandler{plans: plans}
}

type CatalogResponse struct {
	Filters     []models.Filter     `json:"filters"`
	Backgrounds []models.Background `json:"backgrounds"`
	Plans       []models.Plan       `json:"plans"`
}

// GetCatalog lists the styles, backgrounds and purchasable plans
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(CatalogResponse{
		Filters:     catalog.Filters(),
		Backgrounds: catalog.Backgrounds(),
		Plans:       h.plans.All(),
	})
}
