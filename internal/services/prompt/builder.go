package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Egham-7/headshot-studio/internal/models"
)

// ErrCustomBackgroundEmpty is returned when the custom background is selected
// without a description.
var ErrCustomBackgroundEmpty = errors.New("custom background description is empty")

const preserveFeaturesClause = "Maintain the subject's facial features from the original image."

// Build composes the instruction sent to the image model. It is pure: the same
// inputs always produce the same prompt.
func Build(filter models.Filter, background models.Background, customText string) (string, error) {
	scene, err := BackgroundText(background, customText)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s The background is %s. %s", filter.Prompt, scene, preserveFeaturesClause), nil
}

// BackgroundText returns the scene fragment for a background, taking the
// user's text for the custom variant.
func BackgroundText(background models.Background, customText string) (string, error) {
	if !background.IsCustom() {
		return background.PromptFragment, nil
	}

	trimmed := strings.TrimSpace(customText)
	if trimmed == "" {
		return "", ErrCustomBackgroundEmpty
	}
	return "a " + trimmed, nil
}
