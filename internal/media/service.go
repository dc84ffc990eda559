package media

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"vidscope-backend/internal/shared/metrics"
	"vidscope-backend/internal/shared/storage/object"
	"vidscope-backend/internal/shared/telemetry"
)

// Service contains business logic for uploaded media.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	MaxUploadBytes int64
}

// Upload validates and stores a video, replacing the session's prior media.
// The prior media's stored object is released exactly once.
func (s *Service) Upload(ctx context.Context, sessionID, fileName, declaredMime string, declaredSize int64, r io.Reader) (Media, error) {
	if fileName == "" {
		return Media{}, ErrInvalidInput
	}

	if verr := Validate(declaredMime, declaredSize, s.MaxUploadBytes); verr != nil {
		metrics.IncUploadRejected()
		return Media{}, verr
	}

	prior, priorErr := s.Repo.GetCurrent(ctx, sessionID)

	storageKey, size, sniffedMime, err := s.Store.Save(ctx, sessionID, fileName, r)
	if err != nil {
		return Media{}, err
	}

	mimeType := declaredMime
	if mimeType == "" {
		mimeType = sniffedMime
	}

	m := Media{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		return Media{}, err
	}

	if priorErr == nil {
		if err := s.release(ctx, prior); err != nil {
			telemetry.Warn("media.release_prior_failed", map[string]any{
				"media_id": prior.ID,
				"err":      err.Error(),
			})
		}
	}

	return m, nil
}

// Current returns the session's live media.
func (s *Service) Current(ctx context.Context, sessionID string) (Media, error) {
	if sessionID == "" {
		return Media{}, errors.New("session id required")
	}
	return s.Repo.GetCurrent(ctx, sessionID)
}

// SetDuration records the decoded duration reported for the current media.
func (s *Service) SetDuration(ctx context.Context, sessionID string, seconds float64) (Media, error) {
	if seconds <= 0 {
		return Media{}, ErrInvalidInput
	}
	current, err := s.Repo.GetCurrent(ctx, sessionID)
	if err != nil {
		return Media{}, err
	}
	if err := s.Repo.SetDuration(ctx, sessionID, current.ID, seconds); err != nil {
		return Media{}, err
	}
	d := seconds
	current.DurationSeconds = &d
	return current, nil
}

// ReleaseCurrent releases the session's live media, if any. It reports
// whether a release happened so callers can distinguish a no-op reset.
func (s *Service) ReleaseCurrent(ctx context.Context, sessionID string) (bool, error) {
	current, err := s.Repo.GetCurrent(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.release(ctx, current); err != nil {
		return false, err
	}
	return true, nil
}

// release stamps the record released and deletes the stored object. The
// repo transition gates deletion, so repeated calls cannot double-delete.
func (s *Service) release(ctx context.Context, m Media) error {
	transitioned, err := s.Repo.MarkReleased(ctx, m.SessionID, m.ID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !transitioned {
		return nil
	}
	if err := s.Store.Delete(ctx, m.StorageKey); err != nil {
		return err
	}
	telemetry.Info("media.released", map[string]any{
		"media_id":    m.ID,
		"storage_key": m.StorageKey,
	})
	return nil
}
