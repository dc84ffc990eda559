// Package providers abstracts the third-party analysis services behind a
// single call interface. The real wire contracts (Gemini, Twelve Labs, Video
// Intelligence, Roboflow) are external collaborators; every Caller in this
// repository is a local simulation.
package providers

import (
	"context"
	"encoding/json"

	"vidscope-backend/internal/catalog"
)

// CallInput captures everything a provider call needs.
type CallInput struct {
	Provider        catalog.ProviderID
	Task            catalog.Task
	Prompt          string
	MediaName       string
	MediaSizeBytes  int64
	DurationSeconds *float64
	Query           string
}

// Caller dispatches one analysis call to a provider and returns the raw,
// provider-shaped payload.
type Caller interface {
	Call(ctx context.Context, input CallInput) (json.RawMessage, error)
}
