// Package catalog holds the compiled-in styles and backgrounds and the plan
// table shared by checkout and the payment webhook.
package catalog

import (
	"fmt"

	"github.com/Egham-7/headshot-studio/internal/models"
)

var filters = []models.Filter{
	{
		ID:          "confident",
		Name:        "Confident",
		Description: "Sharp, modern, and competent.",
		Prompt:      "A professional LinkedIn headshot of a confident, competent person in business wear. The lighting is sharp and polished.",
	},
	{
		ID:          "approachable",
		Name:        "Approachable",
		Description: "Warm, friendly, and open.",
		Prompt:      "A professional LinkedIn headshot of a friendly, approachable person with a warm, slight smile. The attire is smart-casual. The lighting is soft and flattering.",
	},
	{
		ID:          "creative",
		Name:        "Creative",
		Description: "Dynamic, unique, and engaging.",
		Prompt:      "A creative and dynamic professional headshot for an arts or tech professional. The expression is engaging and thoughtful, with stylish attire and slightly dramatic lighting.",
	},
	{
		ID:          "formal",
		Name:        "Formal",
		Description: "Classic, traditional, and corporate.",
		Prompt:      "A formal corporate headshot. The person has a neutral, professional expression, wearing a formal business suit with classic studio lighting.",
	},
}

var backgrounds = []models.Background{
	{ID: "office", Name: "Modern Office", PromptFragment: "a blurred, modern office setting"},
	{ID: "bookshelf", Name: "Library / Bookshelf", PromptFragment: "a softly-focused library with bookshelves"},
	{ID: "cafe", Name: "Outdoor Cafe", PromptFragment: "an outdoor cafe with a very blurred background"},
	{ID: "neutral", Name: "Neutral Wall", PromptFragment: "a solid, neutral-colored studio wall"},
	{ID: models.CustomBackgroundID, Name: "Custom...", PromptFragment: ""},
}

// Filters returns a copy of the style catalog
func Filters() []models.Filter {
	return append([]models.Filter(nil), filters...)
}

// Backgrounds returns a copy of the background catalog
func Backgrounds() []models.Background {
	return append([]models.Background(nil), backgrounds...)
}

func FilterByID(id string) (models.Filter, bool) {
	for _, f := range filters {
		if f.ID == id {
			return f, true
		}
	}
	return models.Filter{}, false
}

func BackgroundByID(id string) (models.Background, bool) {
	for _, b := range backgrounds {
		if b.ID == id {
			return b, true
		}
	}
	return models.Background{}, false
}

// Plans is the single source of truth for plan -> price -> credits.
type Plans struct {
	ordered []models.Plan
	byID    map[string]models.Plan
	byPrice map[string]models.Plan
}

// NewPlans builds the plan table, rejecting duplicate ids or prices.
func NewPlans(cfgs []models.PlanConfig) (*Plans, error) {
	p := &Plans{
		byID:    make(map[string]models.Plan, len(cfgs)),
		byPrice: make(map[string]models.Plan, len(cfgs)),
	}

	for _, cfg := range cfgs {
		if cfg.ID == "" || cfg.PriceID == "" {
			return nil, fmt.Errorf("plan requires id and price_id")
		}
		if cfg.Credits <= 0 {
			return nil, fmt.Errorf("plan %s must grant a positive number of credits", cfg.ID)
		}
		if _, dup := p.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %s", cfg.ID)
		}
		if _, dup := p.byPrice[cfg.PriceID]; dup {
			return nil, fmt.Errorf("duplicate price id %s", cfg.PriceID)
		}

		plan := models.Plan{
			ID:         cfg.ID,
			Name:       cfg.Name,
			PriceID:    cfg.PriceID,
			Credits:    cfg.Credits,
			PriceLabel: cfg.PriceLabel,
		}
		if plan.Name == "" {
			plan.Name = plan.ID
		}

		p.ordered = append(p.ordered, plan)
		p.byID[plan.ID] = plan
		p.byPrice[plan.PriceID] = plan
	}

	return p, nil
}

func (p *Plans) ByID(id string) (models.Plan, bool) {
	plan, ok := p.byID[id]
	return plan, ok
}

func (p *Plans) ByPriceID(priceID string) (models.Plan, bool) {
	plan, ok := p.byPrice[priceID]
	return plan, ok
}

// All returns the plans in configuration order
func (p *Plans) All() []models.Plan {
	return append([]models.Plan(nil), p.ordered...)
}
