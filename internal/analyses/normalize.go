package analyses

import (
	"encoding/json"
	"fmt"
	"time"

	"vidscope-backend/internal/catalog"
	"vidscope-backend/internal/media"
)

// Normalize wraps a raw provider payload in the result envelope for the
// given task and media. The fallback provider is recorded for display only;
// it is never the provider that produced the payload.
func Normalize(task catalog.Task, provider catalog.ProviderID, m media.Media, raw json.RawMessage, now time.Time) (*Result, error) {
	res := &Result{
		TaskID:           task.ID,
		Kind:             task.Kind,
		Provider:         provider,
		FallbackProvider: task.Fallback,
		Timestamp:        now.UTC(),
		Media: MediaDescriptor{
			FileName:        m.FileName,
			SizeBytes:       m.SizeBytes,
			DurationSeconds: m.DurationSeconds,
		},
	}
	if task.Fallback != "" {
		res.FallbackNote = fmt.Sprintf("Fallback %s was not invoked.", task.Fallback)
	}
	if err := res.decodePayload(task.Kind, raw); err != nil {
		return nil, fmt.Errorf("normalize %s payload: %w", task.ID, err)
	}
	return res, nil
}
