package media

import (
	"context"
	"time"
)

// Repo persists media records.
type Repo interface {
	Create(ctx context.Context, m Media) error
	// GetCurrent returns the newest unreleased media for a session.
	GetCurrent(ctx context.Context, sessionID string) (Media, error)
	GetByID(ctx context.Context, sessionID, mediaID string) (Media, error)
	SetDuration(ctx context.Context, sessionID, mediaID string, seconds float64) error
	// MarkReleased stamps released_at once. It reports whether this call made
	// the transition, so the caller can release the stored object exactly once.
	MarkReleased(ctx context.Context, sessionID, mediaID string, at time.Time) (bool, error)
}
