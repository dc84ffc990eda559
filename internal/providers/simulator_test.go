package providers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vidscope-backend/internal/catalog"
)

func callInput(t *testing.T, taskID catalog.TaskID, query string) CallInput {
	t.Helper()
	task, err := catalog.GetTask(taskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	return CallInput{
		Provider:       task.Primary,
		Task:           task,
		MediaName:      "backyard.mp4",
		MediaSizeBytes: 4 << 20,
		Query:          query,
	}
}

func TestSimulatorDamagePayloadShape(t *testing.T) {
	sim := NewSimulator(0)
	raw, err := sim.Call(context.Background(), callInput(t, catalog.TaskPropertyDamage, ""))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var payload struct {
		Summary     string  `json:"summary"`
		Confidence  float64 `json:"confidence"`
		DamageItems []struct {
			Severity       string `json:"severity"`
			Recommendation string `json:"recommendation"`
		} `json:"damageItems"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Summary == "" {
		t.Fatalf("expected summary")
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", payload.Confidence)
	}
	if len(payload.DamageItems) == 0 {
		t.Fatalf("expected at least one damage item")
	}
	for i, item := range payload.DamageItems {
		switch item.Severity {
		case "Minor", "Moderate", "Severe":
		default:
			t.Fatalf("item %d has invalid severity %q", i, item.Severity)
		}
		if item.Recommendation == "" {
			t.Fatalf("item %d missing recommendation", i)
		}
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	sim := NewSimulator(0)
	input := callInput(t, catalog.TaskVideoSummary, "")
	first, err := sim.Call(context.Background(), input)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	second, err := sim.Call(context.Background(), input)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected deterministic payloads:\n%s\n%s", first, second)
	}
}

func TestSimulatorHonorsCancellation(t *testing.T) {
	sim := NewSimulator(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := sim.Call(ctx, callInput(t, catalog.TaskObjectTracking, ""))
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancellation not honored")
	}
}

func TestSimulatorQueryEchoedInHits(t *testing.T) {
	sim := NewSimulator(0)
	raw, err := sim.Call(context.Background(), callInput(t, catalog.TaskSemanticSearch, "red truck reversing"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var payload struct {
		Hits []struct {
			StartSeconds float64 `json:"startSeconds"`
			EndSeconds   float64 `json:"endSeconds"`
			Label        string  `json:"label"`
			Score        float64 `json:"score"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Hits) == 0 {
		t.Fatalf("expected hits")
	}
	for _, hit := range payload.Hits {
		if hit.EndSeconds <= hit.StartSeconds {
			t.Fatalf("hit has non-positive span: %+v", hit)
		}
	}
}
