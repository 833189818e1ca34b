package detector

import (
	"context"
	"encoding/json"
)

// MediaType identifies the kind of media submitted for analysis.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaRequest is a validated analysis request. At least one of URL or
// Base64 is set.
type MediaRequest struct {
	MediaType MediaType
	URL       string
	Base64    string
}

// Response is the detector body exactly as received.
type Response struct {
	StatusCode int
	Raw        json.RawMessage
}

// Client exposes the subset of functionality used by the analysis flow.
type Client interface {
	Analyze(ctx context.Context, req MediaRequest) (*Response, error)
}
