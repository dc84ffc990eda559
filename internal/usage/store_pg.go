package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed credit store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, sessionID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, sessionID)
	if err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	if n <= 0 {
		return s.Get(ctx, sessionID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.lockAndEnsure(ctx, tx, sessionID)
	if err != nil {
		return Usage{}, err
	}
	if u.Used+n > u.Limit {
		err = ErrLimitReached
		return Usage{}, err
	}
	u.Used += n
	if _, err = tx.ExecContext(ctx, `
UPDATE usage_credits SET used = $1, updated_at = now() WHERE session_id = $2`, u.Used, sessionID); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, sessionID string) (Usage, error) {
	resetsAt := time.Now().UTC().Add(creditsPeriod)
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO usage_credits (session_id, used, credit_limit, resets_at)
VALUES ($1, 0, $2, $3)
ON CONFLICT (session_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at, updated_at = now()`,
		sessionID, defaultLimit, resetsAt); err != nil {
		return Usage{}, err
	}
	return Usage{Used: 0, Limit: defaultLimit, ResetsAt: resetsAt}, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, sessionID string) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT used, credit_limit, resets_at FROM usage_credits WHERE session_id = $1 FOR UPDATE`, sessionID)
	err := row.Scan(&u.Used, &u.Limit, &u.ResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u = defaultUsage()
			if _, err = tx.ExecContext(ctx, `
INSERT INTO usage_credits (session_id, used, credit_limit, resets_at) VALUES ($1, $2, $3, $4)`,
				sessionID, u.Used, u.Limit, u.ResetsAt); err != nil {
				return Usage{}, err
			}
			return u, nil
		}
		return Usage{}, err
	}

	now := time.Now().UTC()
	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(creditsPeriod)
		if _, err = tx.ExecContext(ctx, `
UPDATE usage_credits SET used = $1, resets_at = $2, updated_at = now() WHERE session_id = $3`,
			u.Used, u.ResetsAt, sessionID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
