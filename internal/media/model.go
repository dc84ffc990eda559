package media

import "time"

// Media represents an uploaded video owned by a session. At most one
// unreleased media exists per session; uploads replace the prior one.
type Media struct {
	ID              string
	SessionID       string
	FileName        string
	MimeType        string
	SizeBytes       int64
	DurationSeconds *float64
	StorageKey      string
	ReleasedAt      *time.Time
	CreatedAt       time.Time
}
