package media

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Media // sessionID -> media, oldest first
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Media),
	}
}

// Create appends a media record for a session.
func (r *MemoryRepo) Create(ctx context.Context, m Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[m.SessionID] = append(r.data[m.SessionID], m)
	return nil
}

// GetCurrent returns the newest unreleased media for a session.
func (r *MemoryRepo) GetCurrent(ctx context.Context, sessionID string) (Media, error) {
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.data[sessionID]
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ReleasedAt == nil {
			return items[i], nil
		}
	}
	return Media{}, ErrNotFound
}

// GetByID returns a media record by ID for a session.
func (r *MemoryRepo) GetByID(ctx context.Context, sessionID, mediaID string) (Media, error) {
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.data[sessionID]
	for i := range items {
		if items[i].ID == mediaID {
			return items[i], nil
		}
	}
	return Media{}, ErrNotFound
}

// SetDuration stores the decoded duration of a media record.
func (r *MemoryRepo) SetDuration(ctx context.Context, sessionID, mediaID string, seconds float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.data[sessionID]
	for i := range items {
		if items[i].ID == mediaID {
			d := seconds
			items[i].DurationSeconds = &d
			r.data[sessionID] = items
			return nil
		}
	}
	return ErrNotFound
}

// MarkReleased stamps released_at once and reports whether this call did it.
func (r *MemoryRepo) MarkReleased(ctx context.Context, sessionID, mediaID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.data[sessionID]
	for i := range items {
		if items[i].ID == mediaID {
			if items[i].ReleasedAt != nil {
				return false, nil
			}
			ts := at
			items[i].ReleasedAt = &ts
			r.data[sessionID] = items
			return true, nil
		}
	}
	return false, ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
