package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `
id, session_id, media_id, task_id, provider_id, override, query,
status, result, error_code, error_message, started_at, completed_at, created_at`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, session_id, media_id, task_id, provider_id, override, query, status, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.SessionID,
		analysis.MediaID,
		analysis.TaskID,
		analysis.ProviderID,
		analysis.Override,
		analysis.Query,
		analysis.Status,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis scoped to a session.
func (r *PGRepo) GetByID(ctx context.Context, sessionID, analysisID string) (Analysis, error) {
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1 AND session_id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, analysisID, sessionID)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// ListBySession lists the session's analyses ordered newest-first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// HasActive reports whether the session has a queued or processing analysis.
func (r *PGRepo) HasActive(ctx context.Context, sessionID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM analyses
	WHERE session_id = $1 AND status IN ('queued', 'processing')
)`
	var active bool
	if err := r.DB.QueryRowContext(ctx, query, sessionID).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

// UpdateStatus applies a status transition and any accompanying result or
// error fields.
func (r *PGRepo) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	const query = `
UPDATE analyses
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_code = COALESCE(NULLIF($3::text, ''), error_code),
    error_message = COALESCE(NULLIF($4::text, ''), error_message),
    started_at = COALESCE($5::timestamptz, started_at),
    completed_at = COALESCE($6::timestamptz, completed_at),
    updated_at = now()
WHERE id = $7 AND session_id = $8 AND ($9::text = '' OR status = $9::text)`

	var payload any
	if update.Result != nil {
		buf, err := json.Marshal(update.Result)
		if err != nil {
			return err
		}
		payload = buf
	}

	res, err := r.DB.ExecContext(ctx, query,
		update.Status,
		payload,
		update.ErrorCode,
		update.ErrorMessage,
		update.StartedAt,
		update.CompletedAt,
		update.AnalysisID,
		update.SessionID,
		update.FromStatus,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if update.FromStatus != "" {
			return ErrStatusConflict
		}
		return ErrNotFound
	}
	return nil
}

// ClearBySession deletes the session's analyses and returns the IDs of any
// that were still active.
func (r *PGRepo) ClearBySession(ctx context.Context, sessionID string) ([]string, error) {
	const query = `
DELETE FROM analyses
WHERE session_id = $1
RETURNING id, status`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var active []string
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		if status == StatusQueued || status == StatusProcessing {
			active = append(active, id)
		}
	}
	return active, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var override sql.NullString
	var queryText sql.NullString
	var result sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.MediaID,
		&a.TaskID,
		&a.ProviderID,
		&override,
		&queryText,
		&a.Status,
		&result,
		&errorCode,
		&errorMessage,
		&startedAt,
		&completedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return Analysis{}, err
	}
	if override.Valid {
		a.Override = override.String
	}
	if queryText.Valid {
		a.Query = queryText.String
	}
	if result.Valid {
		var res Result
		if err := json.Unmarshal([]byte(result.String), &res); err == nil {
			a.Result = &res
		}
	}
	if errorCode.Valid {
		a.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		a.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}
