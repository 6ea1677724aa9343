package models

// GenerationRequest is one headshot request. It only lives for the duration
// of the call and is never persisted.
type GenerationRequest struct {
	Image            []byte
	MIMEType         string
	FilterID         string
	BackgroundID     string
	CustomBackground string
}

// GenerationResult is returned to the browser after a successful generation
type GenerationResult struct {
	ID              string
	Image           []byte
	MIMEType        string
	URL             string
	GenerationsLeft int
	UpgradeRequired bool
}
