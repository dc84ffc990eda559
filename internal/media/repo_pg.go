package media

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new media record.
func (r *PGRepo) Create(ctx context.Context, m Media) error {
	const query = `
INSERT INTO media (
    id,
    session_id,
    file_name,
    mime_type,
    size_bytes,
    duration_seconds,
    storage_key,
    released_at,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)`

	var duration sql.NullFloat64
	if m.DurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *m.DurationSeconds, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		m.ID,
		m.SessionID,
		m.FileName,
		m.MimeType,
		m.SizeBytes,
		duration,
		m.StorageKey,
		m.CreatedAt,
	)
	return err
}

// GetCurrent returns the newest unreleased media for a session.
func (r *PGRepo) GetCurrent(ctx context.Context, sessionID string) (Media, error) {
	const query = `
SELECT id, session_id, file_name, mime_type, size_bytes, duration_seconds, storage_key, released_at, created_at
FROM media
WHERE session_id = $1 AND released_at IS NULL
ORDER BY created_at DESC
LIMIT 1`

	return r.scanOne(r.DB.QueryRowContext(ctx, query, sessionID))
}

// GetByID returns a media record by ID for a session.
func (r *PGRepo) GetByID(ctx context.Context, sessionID, mediaID string) (Media, error) {
	const query = `
SELECT id, session_id, file_name, mime_type, size_bytes, duration_seconds, storage_key, released_at, created_at
FROM media
WHERE session_id = $1 AND id = $2`

	return r.scanOne(r.DB.QueryRowContext(ctx, query, sessionID, mediaID))
}

// SetDuration stores the decoded duration of a media record.
func (r *PGRepo) SetDuration(ctx context.Context, sessionID, mediaID string, seconds float64) error {
	const query = `
UPDATE media SET duration_seconds = $3 WHERE session_id = $1 AND id = $2`

	res, err := r.DB.ExecContext(ctx, query, sessionID, mediaID, seconds)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReleased stamps released_at once and reports whether this call did it.
func (r *PGRepo) MarkReleased(ctx context.Context, sessionID, mediaID string, at time.Time) (bool, error) {
	const query = `
UPDATE media SET released_at = $3
WHERE session_id = $1 AND id = $2 AND released_at IS NULL`

	res, err := r.DB.ExecContext(ctx, query, sessionID, mediaID, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PGRepo) scanOne(row *sql.Row) (Media, error) {
	var (
		m          Media
		duration   sql.NullFloat64
		releasedAt sql.NullTime
	)
	err := row.Scan(
		&m.ID,
		&m.SessionID,
		&m.FileName,
		&m.MimeType,
		&m.SizeBytes,
		&duration,
		&m.StorageKey,
		&releasedAt,
		&m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Media{}, ErrNotFound
	}
	if err != nil {
		return Media{}, err
	}
	if duration.Valid {
		d := duration.Float64
		m.DurationSeconds = &d
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		m.ReleasedAt = &t
	}
	return m, nil
}

var _ Repo = (*PGRepo)(nil)
