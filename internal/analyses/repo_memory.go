package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo used when no database is configured and in
// tests.
type MemoryRepo struct {
	mu         sync.RWMutex
	bySession  map[string]map[string]Analysis
	orderIndex map[string]int
	nextOrder  int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		bySession:  map[string]map[string]Analysis{},
		orderIndex: map[string]int{},
	}
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := r.bySession[analysis.SessionID]
	if session == nil {
		session = map[string]Analysis{}
		r.bySession[analysis.SessionID] = session
	}
	session[analysis.ID] = analysis
	r.orderIndex[analysis.ID] = r.nextOrder
	r.nextOrder++
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, sessionID, analysisID string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bySession[sessionID][analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	type keyed struct {
		analysis Analysis
		order    int
	}

	// Snapshot entries and their order while the lock is held; the sort
	// must not touch repo maps after the unlock.
	r.mu.RLock()
	items := make([]keyed, 0, len(r.bySession[sessionID]))
	for _, a := range r.bySession[sessionID] {
		items = append(items, keyed{analysis: a, order: r.orderIndex[a.ID]})
	}
	r.mu.RUnlock()

	// Newest first.
	sort.Slice(items, func(i, j int) bool {
		return items[i].order > items[j].order
	})
	all := make([]Analysis, 0, len(items))
	for _, item := range items {
		all = append(all, item.analysis)
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepo) HasActive(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.bySession[sessionID] {
		if a.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.bySession[update.SessionID][update.AnalysisID]
	if !ok {
		return ErrNotFound
	}
	if update.FromStatus != "" && a.Status != update.FromStatus {
		return ErrStatusConflict
	}
	a.Status = update.Status
	if update.Result != nil {
		a.Result = update.Result
	}
	if update.ErrorCode != "" {
		a.ErrorCode = update.ErrorCode
	}
	if update.ErrorMessage != "" {
		a.ErrorMessage = update.ErrorMessage
	}
	if update.StartedAt != nil {
		a.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		a.CompletedAt = update.CompletedAt
	}
	r.bySession[update.SessionID][update.AnalysisID] = a
	return nil
}

func (r *MemoryRepo) ClearBySession(ctx context.Context, sessionID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []string
	for id, a := range r.bySession[sessionID] {
		if a.Active() {
			active = append(active, id)
		}
		delete(r.orderIndex, id)
	}
	delete(r.bySession, sessionID)
	return active, nil
}

var _ Repo = (*MemoryRepo)(nil)
