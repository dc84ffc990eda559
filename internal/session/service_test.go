package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vidscope-backend/internal/analyses"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/providers"
	localstore "vidscope-backend/internal/shared/storage/object/local"
	"vidscope-backend/internal/usage"
)

const testSession = "guest:session-1"

func newTestReset(t *testing.T) (*Service, *analyses.Service, *media.Service) {
	t.Helper()
	mediaSvc := &media.Service{
		Store:          localstore.New(t.TempDir()),
		Repo:           media.NewMemoryRepo(),
		MaxUploadBytes: 100 << 20,
	}
	usageSvc := usage.NewService()
	analysisSvc := &analyses.Service{
		Repo:      analyses.NewMemoryRepo(),
		MediaRepo: mediaSvc.Repo,
		Caller:    providers.NewSimulator(time.Millisecond),
		Usage:     usageSvc,
	}
	return &Service{
		Analyses: analysisSvc,
		Media:    mediaSvc,
		Usage:    usageSvc,
	}, analysisSvc, mediaSvc
}

func TestResetClearsSessionState(t *testing.T) {
	svc, analysisSvc, mediaSvc := newTestReset(t)
	ctx := context.Background()

	_, err := mediaSvc.Upload(ctx, testSession, "walkthrough.mp4", "video/mp4", 64, strings.NewReader(strings.Repeat("x", 64)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	a, err := analysisSvc.Create(ctx, analyses.CreateInput{
		SessionID: testSession,
		TaskID:    "video_summary",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitDone(t, analysisSvc, a.ID)

	result, err := svc.Reset(ctx, testSession)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !result.MediaReleased {
		t.Fatal("media was not released")
	}

	if _, err := mediaSvc.Current(ctx, testSession); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("Current after reset err = %v, want ErrNotFound", err)
	}
	list, err := analysisSvc.List(ctx, testSession, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("analyses after reset = %d, want 0", len(list))
	}
	u, err := svc.Usage.Get(ctx, testSession)
	if err != nil {
		t.Fatalf("usage Get: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("credits used after reset = %d, want 0", u.Used)
	}
}

func TestResetIsIdempotentForMedia(t *testing.T) {
	svc, _, mediaSvc := newTestReset(t)
	ctx := context.Background()

	_, err := mediaSvc.Upload(ctx, testSession, "walkthrough.mp4", "video/mp4", 64, strings.NewReader(strings.Repeat("x", 64)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	first, err := svc.Reset(ctx, testSession)
	if err != nil {
		t.Fatalf("first Reset: %v", err)
	}
	if !first.MediaReleased {
		t.Fatal("first reset did not release media")
	}

	second, err := svc.Reset(ctx, testSession)
	if err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	if second.MediaReleased {
		t.Fatal("second reset claims to release media again")
	}
}

func waitDone(t *testing.T, svc *analyses.Service, analysisID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := svc.Get(context.Background(), testSession, analysisID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !a.Active() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analysis never finished")
}
