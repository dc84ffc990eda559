package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Usage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Usage)}
}

func (s *memoryStore) Get(ctx context.Context, sessionID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(sessionID), nil
}

func (s *memoryStore) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(sessionID)
	if n <= 0 {
		return u, nil
	}
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.data[sessionID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, sessionID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(sessionID)
	u.Used = 0
	u.ResetsAt = time.Now().UTC().Add(creditsPeriod)
	s.data[sessionID] = u
	return u, nil
}

// ensureLocked loads the session entry, rolling the window if expired. The
// caller must hold mu.
func (s *memoryStore) ensureLocked(sessionID string) Usage {
	now := time.Now().UTC()
	u, ok := s.data[sessionID]
	if !ok {
		u = defaultUsage()
	}
	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(creditsPeriod)
	}
	s.data[sessionID] = u
	return u
}
