package session

import (
	"context"
	"fmt"

	"vidscope-backend/internal/analyses"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/shared/telemetry"
	"vidscope-backend/internal/usage"
)

// Service resets a session back to its initial state: no analyses, no
// uploaded video, fresh credits.
type Service struct {
	Analyses *analyses.Service
	Media    *media.Service
	Usage    *usage.Service
}

// ResetResult reports what the reset actually did.
type ResetResult struct {
	MediaReleased bool `json:"mediaReleased"`
}

// Reset cancels any running analysis, clears the session's history, releases
// the uploaded video and restores the credit balance.
func (s *Service) Reset(ctx context.Context, sessionID string) (ResetResult, error) {
	if err := s.Analyses.Clear(ctx, sessionID); err != nil {
		return ResetResult{}, fmt.Errorf("clear analyses: %w", err)
	}

	released, err := s.Media.ReleaseCurrent(ctx, sessionID)
	if err != nil {
		return ResetResult{}, fmt.Errorf("release media: %w", err)
	}

	if s.Usage != nil {
		if _, err := s.Usage.Reset(ctx, sessionID); err != nil {
			return ResetResult{}, fmt.Errorf("reset usage: %w", err)
		}
	}

	telemetry.Info("session.reset", map[string]any{
		"session_id":     sessionID,
		"media_released": released,
	})
	return ResetResult{MediaReleased: released}, nil
}
