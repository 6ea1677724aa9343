package models

// CustomBackgroundID is the background variant whose fragment comes from the user
const CustomBackgroundID = "custom"

// Filter is a named prompt template expressing a headshot's tone
type Filter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// Background is a named scene description inserted into the prompt
type Background struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PromptFragment string `json:"promptFragment"`
}

// IsCustom reports whether the fragment must come from user input
func (b Background) IsCustom() bool {
	return b.ID == CustomBackgroundID
}

// Plan maps a purchasable plan to its processor price and credit grant
type Plan struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceID    string `json:"priceId"`
	Credits    int    `json:"credits"`
	PriceLabel string `json:"priceLabel,omitempty"`
}
