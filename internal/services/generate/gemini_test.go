package generate

import (
	"testing"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func responseWith(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

func TestExtractImageReturnsFirstInlineImage(t *testing.T) {
	resp := responseWith(
		&genai.Part{Text: "Here is your headshot"},
		&genai.Part{InlineData: &genai.Blob{Data: []byte("first"), MIMEType: "image/png"}},
		&genai.Part{InlineData: &genai.Blob{Data: []byte("second"), MIMEType: "image/png"}},
	)

	img, err := extractImage(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestExtractImageSurfacesRefusalText(t *testing.T) {
	resp := responseWith(&genai.Part{Text: "  I can't help with that request.  "})

	_, err := extractImage(resp)

	var refusal *RefusalError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, "I can't help with that request.", refusal.Text)
	assert.Equal(t, `Model did not return an image. Response: "I can't help with that request."`, err.Error())
}

func TestRefusalErrorKeepsTextVerbatim(t *testing.T) {
	err := &RefusalError{Text: "Please describe the \"office\"\nin more detail."}

	assert.Equal(t, "Model did not return an image. Response: \"Please describe the \"office\"\nin more detail.\"", err.Error())
}

func TestExtractImageWithoutAnything(t *testing.T) {
	_, err := extractImage(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = extractImage(nil)
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = extractImage(responseWith(&genai.Part{Text: "reasoning", Thought: true}))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestNewSelectsProvider(t *testing.T) {
	g, err := New(models.GenerationConfig{Provider: models.GenerationProviderGemini, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiGenerator{}, g)

	g, err = New(models.GenerationConfig{Provider: models.GenerationProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = New(models.GenerationConfig{Provider: "dall-e"})
	assert.Error(t, err)
}
