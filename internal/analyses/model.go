package analyses

import (
	"time"

	"vidscope-backend/internal/catalog"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Analysis represents one dispatched analysis request and its outcome.
type Analysis struct {
	ID           string             `json:"id"`
	SessionID    string             `json:"sessionId"`
	MediaID      string             `json:"mediaId"`
	TaskID       catalog.TaskID     `json:"taskId"`
	ProviderID   catalog.ProviderID `json:"providerId"`
	Override     string             `json:"override"`
	Query        string             `json:"query,omitempty"`
	Status       string             `json:"status"`
	Result       *Result            `json:"result,omitempty"`
	ErrorCode    string             `json:"errorCode,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// Active reports whether the analysis still occupies the session's single
// in-flight slot.
func (a Analysis) Active() bool {
	return a.Status == StatusQueued || a.Status == StatusProcessing
}
