package utils

import (
	"encoding/base64"

	"github.com/valyala/bytebufferpool"
)

var dataURLPool bytebufferpool.Pool

// DataURL renders image bytes as a data: URL the browser can display directly.
// Headshots are a few megabytes, so the scratch buffer is pooled.
func DataURL(mimeType string, data []byte) string {
	buf := dataURLPool.Get()
	defer dataURLPool.Put(buf)

	_, _ = buf.WriteString("data:")
	_, _ = buf.WriteString(mimeType)
	_, _ = buf.WriteString(";base64,")

	start := buf.Len()
	buf.B = append(buf.B, make([]byte, base64.StdEncoding.EncodedLen(len(data)))...)
	base64.StdEncoding.Encode(buf.B[start:], data)

	return buf.String()
}
