package usage

import "context"

type store interface {
	Get(ctx context.Context, sessionID string) (Usage, error)
	Consume(ctx context.Context, sessionID string, n int) (Usage, error)
	Reset(ctx context.Context, sessionID string) (Usage, error)
}

// Service manages per-session credits via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the session's current credits, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, sessionID string) (Usage, error) {
	return s.store.Get(ctx, sessionID)
}

// CanConsume reports whether the session can spend n credits.
func (s *Service) CanConsume(ctx context.Context, sessionID string, n int) (bool, Usage, error) {
	u, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return false, Usage{}, err
	}
	if n <= 0 {
		return true, u, nil
	}
	return u.Used+n <= u.Limit, u, nil
}

// Consume spends n credits if the balance allows it.
func (s *Service) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	return s.store.Consume(ctx, sessionID, n)
}

// Reset zeroes the session's spend and restarts the period window.
func (s *Service) Reset(ctx context.Context, sessionID string) (Usage, error) {
	return s.store.Reset(ctx, sessionID)
}
