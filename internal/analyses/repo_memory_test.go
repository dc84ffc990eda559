package analyses

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestListBySessionNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := Analysis{
			ID:        fmt.Sprintf("a-%d", i),
			SessionID: "guest:order",
			TaskID:    "video_summary",
			Status:    StatusCompleted,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	listed, err := repo.ListBySession(ctx, "guest:order", 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(listed) != 5 {
		t.Fatalf("listed = %d, want 5", len(listed))
	}
	for i, a := range listed {
		want := fmt.Sprintf("a-%d", 4-i)
		if a.ID != want {
			t.Fatalf("listed[%d] = %s, want %s", i, a.ID, want)
		}
	}
}

func TestListBySessionDuringConcurrentCreates(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	const writes = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			a := Analysis{
				ID:        fmt.Sprintf("w-%d", i),
				SessionID: "guest:writer",
				TaskID:    "video_summary",
				Status:    StatusQueued,
				CreatedAt: time.Now().UTC(),
			}
			if err := repo.Create(ctx, a); err != nil {
				t.Errorf("Create: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			if _, err := repo.ListBySession(ctx, "guest:reader", 20, 0); err != nil {
				t.Errorf("ListBySession: %v", err)
				return
			}
			if _, err := repo.ListBySession(ctx, "guest:writer", 20, 0); err != nil {
				t.Errorf("ListBySession: %v", err)
				return
			}
		}
	}()

	wg.Wait()

	listed, err := repo.ListBySession(ctx, "guest:writer", 100, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(listed) != 100 {
		t.Fatalf("listed = %d, want 100", len(listed))
	}
	if listed[0].ID != fmt.Sprintf("w-%d", writes-1) {
		t.Fatalf("listed[0] = %s, want w-%d", listed[0].ID, writes-1)
	}
}
