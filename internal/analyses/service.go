package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidscope-backend/internal/catalog"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/providers"
	"vidscope-backend/internal/routing"
	"vidscope-backend/internal/shared/metrics"
	"vidscope-backend/internal/shared/telemetry"
	"vidscope-backend/internal/usage"
)

// Enqueuer hands dispatch work to an external queue. When nil, the service
// processes analyses in-process.
type Enqueuer interface {
	EnqueueAnalysis(ctx context.Context, sessionID, analysisID string) error
}

// Service contains business logic for analyses.
type Service struct {
	Repo      Repo
	MediaRepo media.Repo
	Caller    providers.Caller
	Usage     *usage.Service
	Queue     Enqueuer

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// CreateInput is a request to dispatch a new analysis.
type CreateInput struct {
	SessionID string
	TaskID    string
	Provider  string
	Query     string
}

// Create validates the request, resolves the provider, records the analysis
// and kicks off dispatch. The session's single in-flight slot must be free.
func (s *Service) Create(ctx context.Context, in CreateInput) (Analysis, error) {
	if in.SessionID == "" {
		return Analysis{}, errors.New("sessionID is required")
	}

	task, err := catalog.GetTask(catalog.TaskID(in.TaskID))
	if err != nil {
		return Analysis{}, ErrUnknownTask
	}
	override := strings.TrimSpace(in.Provider)
	resolved := routing.Resolve(task, override)
	if _, err := catalog.GetProvider(resolved); err != nil {
		return Analysis{}, ErrUnknownProvider
	}
	query := strings.TrimSpace(in.Query)
	if task.RequiresQuery && query == "" {
		return Analysis{}, ErrQueryRequired
	}

	current, err := s.MediaRepo.GetCurrent(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return Analysis{}, ErrNoMedia
		}
		return Analysis{}, err
	}

	active, err := s.Repo.HasActive(ctx, in.SessionID)
	if err != nil {
		return Analysis{}, err
	}
	if active {
		return Analysis{}, ErrInFlight
	}

	// Spend the credits first. A consume failure after the record exists
	// would leave a queued analysis holding the in-flight slot forever.
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, in.SessionID, task.CreditCost); err != nil {
			return Analysis{}, err
		}
	}

	analysis := Analysis{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		MediaID:    current.ID,
		TaskID:     task.ID,
		ProviderID: resolved,
		Override:   normalizeOverride(override),
		Query:      query,
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	telemetry.Info("analysis.dispatched", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"session_id":  analysis.SessionID,
		"analysis_id": analysis.ID,
		"task_id":     analysis.TaskID,
		"provider":    analysis.ProviderID,
		"override":    analysis.Override,
	})

	s.dispatch(ctx, analysis)
	return analysis, nil
}

func (s *Service) dispatch(ctx context.Context, analysis Analysis) {
	if s.Queue != nil {
		err := s.Queue.EnqueueAnalysis(ctx, analysis.SessionID, analysis.ID)
		if err == nil {
			return
		}
		// Fall back to in-process dispatch when the queue is unreachable.
		telemetry.Warn("analysis.enqueue_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}

	runCtx, cancel := context.WithCancel(backgroundWithRequestID(ctx))
	s.track(analysis.ID, cancel)
	go func() {
		defer s.untrack(analysis.ID)
		defer cancel()
		_ = s.Process(runCtx, analysis.SessionID, analysis.ID)
	}()
}

// Process runs one queued analysis through its provider and records the
// outcome. It is called from the in-process goroutine and from queue workers.
func (s *Service) Process(ctx context.Context, sessionID, analysisID string) error {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, sessionID, analysisID, fmt.Errorf("panic: %v", r), nil)
		}
	}()

	analysis, err := s.Repo.GetByID(ctx, sessionID, analysisID)
	if err != nil {
		return err
	}
	if analysis.Status != StatusQueued {
		// Canceled or already picked up elsewhere.
		return nil
	}

	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, StatusUpdate{
		SessionID:  sessionID,
		AnalysisID: analysisID,
		Status:     StatusProcessing,
		FromStatus: StatusQueued,
		StartedAt:  &startedAt,
	}); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Canceled between the load and the transition.
			return nil
		}
		s.fail(ctx, sessionID, analysisID, fmt.Errorf("set processing failed: %w", err), &startedAt)
		return err
	}
	metrics.IncAnalysisStarted()
	s.logStatus(ctx, analysis, StatusProcessing, "queued->processing", nil)

	task, err := catalog.GetTask(analysis.TaskID)
	if err != nil {
		s.fail(ctx, sessionID, analysisID, fmt.Errorf("task lookup %s: %w", analysis.TaskID, err), &startedAt)
		return err
	}
	m, err := s.MediaRepo.GetByID(ctx, sessionID, analysis.MediaID)
	if err != nil {
		s.fail(ctx, sessionID, analysisID, fmt.Errorf("media lookup %s: %w", analysis.MediaID, err), &startedAt)
		return err
	}

	raw, err := s.Caller.Call(ctx, providers.CallInput{
		Provider:        analysis.ProviderID,
		Task:            task,
		Prompt:          task.Prompts[analysis.ProviderID],
		MediaName:       m.FileName,
		MediaSizeBytes:  m.SizeBytes,
		DurationSeconds: m.DurationSeconds,
		Query:           analysis.Query,
	})
	if err != nil {
		s.fail(ctx, sessionID, analysisID, fmt.Errorf("provider call %s: %w", analysis.ProviderID, err), &startedAt)
		return err
	}

	result, err := Normalize(task, analysis.ProviderID, m, raw, time.Now())
	if err != nil {
		s.fail(ctx, sessionID, analysisID, err, &startedAt)
		return err
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, StatusUpdate{
		SessionID:   sessionID,
		AnalysisID:  analysisID,
		Status:      StatusCompleted,
		FromStatus:  StatusProcessing,
		Result:      result,
		CompletedAt: &completedAt,
	}); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil
		}
		s.fail(ctx, sessionID, analysisID, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return err
	}
	metrics.IncAnalysisCompleted()
	dur := durationMs(&startedAt, &completedAt)
	metrics.ObserveAnalysisDurationMs(dur)
	s.logStatus(ctx, analysis, StatusCompleted, "processing->completed", &dur)
	return nil
}

// Get returns an analysis scoped to a session.
func (s *Service) Get(ctx context.Context, sessionID, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	return s.Repo.GetByID(ctx, sessionID, analysisID)
}

// List returns the session's analyses ordered newest-first.
func (s *Service) List(ctx context.Context, sessionID string, limit, offset int) ([]Analysis, error) {
	return s.Repo.ListBySession(ctx, sessionID, limit, offset)
}

// Cancel stops a queued or processing analysis. A canceled analysis frees
// the session's in-flight slot.
func (s *Service) Cancel(ctx context.Context, sessionID, analysisID string) (Analysis, error) {
	analysis, err := s.Repo.GetByID(ctx, sessionID, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if !analysis.Active() {
		return Analysis{}, ErrNotCancelable
	}

	s.mu.Lock()
	cancel := s.inflight[analysisID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, StatusUpdate{
		SessionID:   sessionID,
		AnalysisID:  analysisID,
		Status:      StatusCanceled,
		FromStatus:  analysis.Status,
		ErrorCode:   ErrorCodeCanceled,
		CompletedAt: &completedAt,
	}); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Raced with a concurrent transition. Retry once against the
			// fresh status.
			fresh, getErr := s.Repo.GetByID(ctx, sessionID, analysisID)
			if getErr != nil {
				return Analysis{}, getErr
			}
			if fresh.Status == StatusCanceled {
				// The processing goroutine observed the context cancel and
				// stamped the record first. The cancel still succeeded.
				return fresh, nil
			}
			if !fresh.Active() {
				return Analysis{}, ErrNotCancelable
			}
			if err := s.Repo.UpdateStatus(ctx, StatusUpdate{
				SessionID:   sessionID,
				AnalysisID:  analysisID,
				Status:      StatusCanceled,
				FromStatus:  fresh.Status,
				ErrorCode:   ErrorCodeCanceled,
				CompletedAt: &completedAt,
			}); err != nil {
				return Analysis{}, err
			}
		} else {
			return Analysis{}, err
		}
	}
	metrics.IncAnalysisCanceled()
	s.logStatus(ctx, analysis, StatusCanceled, analysis.Status+"->canceled", nil)
	return s.Repo.GetByID(ctx, sessionID, analysisID)
}

// CancelActive cancels every active analysis in a session. Used by session
// reset.
func (s *Service) CancelActive(ctx context.Context, sessionID string, analysisIDs []string) {
	for _, id := range analysisIDs {
		s.mu.Lock()
		cancel := s.inflight[id]
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// Clear removes the session's analyses, canceling any still running.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	active, err := s.Repo.ClearBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	s.CancelActive(ctx, sessionID, active)
	return nil
}

// Export returns a completed analysis result as a pretty-printed JSON
// document plus a download file name.
func (s *Service) Export(ctx context.Context, sessionID, analysisID string) ([]byte, string, error) {
	analysis, err := s.Repo.GetByID(ctx, sessionID, analysisID)
	if err != nil {
		return nil, "", err
	}
	if analysis.Status != StatusCompleted || analysis.Result == nil {
		return nil, "", ErrNotCompleted
	}
	buf, err := json.MarshalIndent(analysis.Result, "", "  ")
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("%s-%s.json", analysis.TaskID, analysis.ID[:8])
	return buf, name, nil
}

func (s *Service) track(analysisID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = map[string]context.CancelFunc{}
	}
	s.inflight[analysisID] = cancel
}

func (s *Service) untrack(analysisID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, analysisID)
}

func (s *Service) fail(ctx context.Context, sessionID, analysisID string, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	status := StatusFailed
	if code == ErrorCodeCanceled {
		status = StatusCanceled
	}
	completedAt := time.Now().UTC()
	update := StatusUpdate{
		SessionID:    sessionID,
		AnalysisID:   analysisID,
		Status:       status,
		ErrorCode:    code,
		ErrorMessage: sanitizeError(err),
		CompletedAt:  &completedAt,
	}
	if status == StatusCanceled {
		// Cancel may already have stamped the record.
		update.FromStatus = StatusProcessing
	}
	if updateErr := s.Repo.UpdateStatus(context.WithoutCancel(ctx), update); updateErr != nil {
		if errors.Is(updateErr, ErrStatusConflict) {
			return
		}
		telemetry.Error("analysis.fail_update", map[string]any{
			"analysis_id": analysisID,
			"error":       updateErr.Error(),
			"orig":        err.Error(),
		})
	}
	if status == StatusCanceled {
		metrics.IncAnalysisCanceled()
	} else {
		metrics.IncAnalysisFailed()
	}
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"session_id":  sessionID,
		"analysis_id": analysisID,
		"status":      status,
		"error_code":  code,
	})
}

func (s *Service) logStatus(ctx context.Context, analysis Analysis, status, transition string, durationMs *float64) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        analysis.SessionID,
		"analysis_id":       analysis.ID,
		"task_id":           analysis.TaskID,
		"provider":          analysis.ProviderID,
		"status":            status,
		"status_transition": transition,
	}
	if durationMs != nil {
		fields["duration_ms"] = *durationMs
	}
	telemetry.Info("analysis.status", fields)
}

func normalizeOverride(override string) string {
	if override == "" {
		return catalog.Auto
	}
	return override
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeProviderTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") && strings.Contains(msg, "provider"):
		return ErrorCodeProviderTimeout
	case strings.Contains(msg, "normalize") || strings.Contains(msg, "decode") || strings.Contains(msg, "schema"):
		return ErrorCodeSchemaMismatch
	case strings.Contains(msg, "validation"):
		return ErrorCodeValidation
	case strings.Contains(msg, "lookup") || strings.Contains(msg, "storage") || strings.Contains(msg, "set processing") || strings.Contains(msg, "set analysis result"):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
