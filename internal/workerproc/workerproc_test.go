package workerproc

import (
	"context"
	"errors"
	"testing"

	"vidscope-backend/internal/queue"
)

type fakeProcessor struct {
	sessionID  string
	analysisID string
	err        error
}

func (f *fakeProcessor) Process(ctx context.Context, sessionID, analysisID string) error {
	f.sessionID = sessionID
	f.analysisID = analysisID
	return f.err
}

func TestParseMessageRejectsEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	_, meta, err := ParseMessage("{ nope")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("meta not computed: %+v", meta)
	}
}

func TestParseMessageRequiresIDs(t *testing.T) {
	payload, err := queue.EncodeMessage(queue.Message{RequestID: "req-1", Version: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, _, err = ParseMessage(string(payload))
	var missing ErrMissingID
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want ErrMissingID", err)
	}
	if missing.RequestID != "req-1" {
		t.Fatalf("requestID = %q, want req-1", missing.RequestID)
	}
}

func TestHandleMessageRunsProcessor(t *testing.T) {
	payload, err := queue.EncodeMessage(queue.Message{
		AnalysisID: "a1",
		SessionID:  "guest:s1",
		Version:    1,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	proc := &fakeProcessor{}
	if err := HandleMessage(context.Background(), proc, string(payload)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if proc.sessionID != "guest:s1" || proc.analysisID != "a1" {
		t.Fatalf("processor got %s/%s", proc.sessionID, proc.analysisID)
	}
}

func TestHandleMessageWrapsProcessorError(t *testing.T) {
	payload, _ := queue.EncodeMessage(queue.Message{
		AnalysisID: "a1",
		SessionID:  "guest:s1",
		Version:    1,
	})

	proc := &fakeProcessor{err: errors.New("boom")}
	err := HandleMessage(context.Background(), proc, string(payload))
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %v, want ErrProcess", err)
	}
	if procErr.AnalysisID != "a1" {
		t.Fatalf("analysisID = %q, want a1", procErr.AnalysisID)
	}
}
