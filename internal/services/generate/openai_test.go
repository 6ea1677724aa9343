package generate

import (
	"encoding/base64"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecodeOpenAIImage(t *testing.T) {
	resp := &openai.ImagesResponse{
		Data: []openai.Image{
			{B64JSON: ""},
			{B64JSON: base64.StdEncoding.EncodeToString(pngHeader)},
		},
	}

	img, err := decodeOpenAIImage(resp)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestDecodeOpenAIImageEmpty(t *testing.T) {
	_, err := decodeOpenAIImage(&openai.ImagesResponse{})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = decodeOpenAIImage(&openai.ImagesResponse{Data: []openai.Image{{B64JSON: "!!not-base64"}}})
	assert.Error(t, err)
}
