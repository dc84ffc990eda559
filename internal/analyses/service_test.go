package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidscope-backend/internal/catalog"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/providers"
	"vidscope-backend/internal/usage"
)

const testSession = "guest:session-1"

func newTestService(t *testing.T) (*Service, media.Media) {
	t.Helper()
	mediaRepo := media.NewMemoryRepo()
	m := media.Media{
		ID:        "media-1",
		SessionID: testSession,
		FileName:  "inspection.mp4",
		MimeType:  "video/mp4",
		SizeBytes: 12_345_678,
		CreatedAt: time.Now().UTC(),
	}
	if err := mediaRepo.Create(context.Background(), m); err != nil {
		t.Fatalf("media create: %v", err)
	}
	svc := &Service{
		Repo:      NewMemoryRepo(),
		MediaRepo: mediaRepo,
		Caller:    providers.NewSimulator(time.Millisecond),
		Usage:     usage.NewService(),
	}
	return svc, m
}

func waitForTerminal(t *testing.T, svc *Service, sessionID, analysisID string) Analysis {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := svc.Get(context.Background(), sessionID, analysisID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !a.Active() {
			return a
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analysis never reached a terminal status")
	return Analysis{}
}

func TestCreateAutoRoutesToPrimaryAndCompletes(t *testing.T) {
	svc, m := newTestService(t)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "property_damage",
		Provider:  "auto",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ProviderID != catalog.ProviderGemini {
		t.Fatalf("provider = %s, want gemini", a.ProviderID)
	}
	if a.MediaID != m.ID {
		t.Fatalf("mediaId = %s, want %s", a.MediaID, m.ID)
	}
	if a.Status != StatusQueued {
		t.Fatalf("status = %s, want queued", a.Status)
	}

	done := waitForTerminal(t, svc, testSession, a.ID)
	if done.Status != StatusCompleted {
		t.Fatalf("status = %s (%s: %s), want completed", done.Status, done.ErrorCode, done.ErrorMessage)
	}
	res := done.Result
	if res == nil {
		t.Fatal("completed analysis has no result")
	}
	if res.Kind != catalog.KindDamageReport || res.DamageReport == nil {
		t.Fatalf("result kind = %s, want damage_report with payload", res.Kind)
	}
	if res.Provider != catalog.ProviderGemini {
		t.Fatalf("result provider = %s, want gemini", res.Provider)
	}
	if res.FallbackProvider != catalog.ProviderRoboflow {
		t.Fatalf("fallback provider = %s, want roboflow", res.FallbackProvider)
	}
	if res.Media.FileName != m.FileName {
		t.Fatalf("media descriptor file = %s, want %s", res.Media.FileName, m.FileName)
	}
	for i, item := range res.DamageReport.Items {
		if !item.Severity.valid() {
			t.Fatalf("item %d severity = %q", i, item.Severity)
		}
		if item.Recommendation == "" {
			t.Fatalf("item %d missing recommendation", i)
		}
	}
}

func TestCreateOverrideWins(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "property_damage",
		Provider:  "twelvelabs",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ProviderID != catalog.ProviderTwelveLabs {
		t.Fatalf("provider = %s, want twelvelabs", a.ProviderID)
	}
	if a.Override != "twelvelabs" {
		t.Fatalf("override = %q, want twelvelabs", a.Override)
	}
	waitForTerminal(t, svc, testSession, a.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{SessionID: testSession, TaskID: "nope"}); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("unknown task err = %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{SessionID: testSession, TaskID: "video_summary", Provider: "acme"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("unknown provider err = %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{SessionID: testSession, TaskID: "semantic_search"}); !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("missing query err = %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{SessionID: "guest:empty", TaskID: "video_summary"}); !errors.Is(err, ErrNoMedia) {
		t.Fatalf("no media err = %v", err)
	}
}

func TestSingleInFlightPerSession(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Caller = providers.NewSimulator(200 * time.Millisecond)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	}); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second create err = %v, want ErrInFlight", err)
	}

	waitForTerminal(t, svc, testSession, a.ID)
}

func TestCreateConsumesCredits(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := catalog.GetTask("object_tracking")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	before, _ := svc.Usage.Get(context.Background(), testSession)
	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    string(task.ID),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	after, _ := svc.Usage.Get(context.Background(), testSession)
	if after.Used-before.Used != task.CreditCost {
		t.Fatalf("credits consumed = %d, want %d", after.Used-before.Used, task.CreditCost)
	}
	waitForTerminal(t, svc, testSession, a.ID)
}

func TestCreateOverLimitLeavesNoRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Exhaust the session's credits up front.
	balance, err := svc.Usage.Get(ctx, testSession)
	if err != nil {
		t.Fatalf("Usage.Get: %v", err)
	}
	if _, err := svc.Usage.Consume(ctx, testSession, balance.Remaining()); err != nil {
		t.Fatalf("Usage.Consume: %v", err)
	}

	if _, err := svc.Create(ctx, CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	}); !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("Create err = %v, want ErrLimitReached", err)
	}

	// The failed create must not occupy the in-flight slot or leave a
	// stranded queued record.
	active, err := svc.Repo.HasActive(ctx, testSession)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if active {
		t.Fatal("failed create left an active analysis")
	}
	listed, err := svc.List(ctx, testSession, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("listed = %d, want 0", len(listed))
	}

	// After a credit reset the slot is usable again.
	if _, err := svc.Usage.Reset(ctx, testSession); err != nil {
		t.Fatalf("Usage.Reset: %v", err)
	}
	a, err := svc.Create(ctx, CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	})
	if err != nil {
		t.Fatalf("Create after reset: %v", err)
	}
	waitForTerminal(t, svc, testSession, a.ID)
}

func TestCancelRunningAnalysis(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Caller = providers.NewSimulator(2 * time.Second)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	canceled, err := svc.Cancel(context.Background(), testSession, a.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("status = %s, want canceled", canceled.Status)
	}
	if canceled.ErrorCode != ErrorCodeCanceled {
		t.Fatalf("errorCode = %s, want %s", canceled.ErrorCode, ErrorCodeCanceled)
	}

	// A canceled analysis frees the in-flight slot.
	next, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "custom_query",
		Query:     "was the door damaged",
	})
	if err != nil {
		t.Fatalf("Create after cancel: %v", err)
	}
	svc.Caller = providers.NewSimulator(time.Millisecond)
	waitForTerminal(t, svc, testSession, next.ID)
}

// selfCancelingRepo makes the first cancel transition lose the race against
// the processing goroutine's own canceled stamp.
type selfCancelingRepo struct {
	*MemoryRepo
	raced bool
}

func (r *selfCancelingRepo) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	if !r.raced && update.Status == StatusCanceled {
		r.raced = true
		if err := r.MemoryRepo.UpdateStatus(ctx, StatusUpdate{
			SessionID:   update.SessionID,
			AnalysisID:  update.AnalysisID,
			Status:      StatusCanceled,
			FromStatus:  update.FromStatus,
			ErrorCode:   ErrorCodeCanceled,
			CompletedAt: update.CompletedAt,
		}); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return r.MemoryRepo.UpdateStatus(ctx, update)
}

func TestCancelRacingSelfCancellationSucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	repo := &selfCancelingRepo{MemoryRepo: NewMemoryRepo()}
	svc.Repo = repo
	ctx := context.Background()

	a := Analysis{
		ID:        "a-racing",
		SessionID: testSession,
		MediaID:   "media-1",
		TaskID:    "video_summary",
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	canceled, err := svc.Cancel(ctx, testSession, a.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("status = %s, want canceled", canceled.Status)
	}
	if canceled.ErrorCode != ErrorCodeCanceled {
		t.Fatalf("errorCode = %s, want %s", canceled.ErrorCode, ErrorCodeCanceled)
	}
}

func TestCancelCompletedReturnsNotCancelable(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForTerminal(t, svc, testSession, a.ID)

	if _, err := svc.Cancel(context.Background(), testSession, a.ID); !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("Cancel err = %v, want ErrNotCancelable", err)
	}
}

func TestExportCompletedResult(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateInput{
		SessionID: testSession,
		TaskID:    "semantic_search",
		Query:     "red truck",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := svc.Export(context.Background(), testSession, a.ID); !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("early export err = %v, want ErrNotCompleted", err)
	}
	waitForTerminal(t, svc, testSession, a.ID)

	buf, name, err := svc.Export(context.Background(), testSession, a.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(buf) == 0 {
		t.Fatal("export payload is empty")
	}
	if name == "" {
		t.Fatal("export file name is empty")
	}
}
