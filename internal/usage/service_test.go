package usage

import (
	"context"
	"errors"
	"testing"
)

func TestConsumeWithinLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.Consume(ctx, "guest:s1", 15)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if u.Used != 15 {
		t.Fatalf("Used = %d, want 15", u.Used)
	}
	if u.Remaining() != u.Limit-15 {
		t.Fatalf("Remaining = %d, want %d", u.Remaining(), u.Limit-15)
	}
}

func TestConsumeOverLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.Get(ctx, "guest:s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.Consume(ctx, "guest:s1", u.Limit+1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("Consume err = %v, want ErrLimitReached", err)
	}

	ok, _, err := svc.CanConsume(ctx, "guest:s1", u.Limit+1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if ok {
		t.Fatal("CanConsume = true for over-limit request")
	}
}

func TestResetClearsSpend(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "guest:s1", 40); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	u, err := svc.Reset(ctx, "guest:s1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("Used after reset = %d, want 0", u.Used)
	}
}

func TestSessionsIsolated(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "guest:a", 30); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	u, err := svc.Get(ctx, "guest:b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("Used for untouched session = %d, want 0", u.Used)
	}
}
