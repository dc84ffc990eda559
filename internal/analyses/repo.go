package analyses

import (
	"context"
	"time"
)

// StatusUpdate carries a status transition for a stored analysis. Nil
// pointer fields leave the stored value unchanged. When FromStatus is set
// the update only applies while the analysis still has that status, so
// concurrent transitions cannot clobber each other.
type StatusUpdate struct {
	SessionID    string
	AnalysisID   string
	Status       string
	FromStatus   string
	Result       *Result
	ErrorCode    string
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Repo persists analyses per session.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, sessionID, analysisID string) (Analysis, error)
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Analysis, error)
	// HasActive reports whether the session has a queued or processing analysis.
	HasActive(ctx context.Context, sessionID string) (bool, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	// ClearBySession removes the session's analyses and returns IDs of any
	// that were still active so the caller can cancel them.
	ClearBySession(ctx context.Context, sessionID string) ([]string, error)
}
