package util

import "testing"

func TestHashSessionKey(t *testing.T) {
	id := "guest:abc-123"
	got := HashSessionKey(id)
	if got != HashSessionKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected empty rejection")
	}
	got, err := SanitizeFileName("clips/backyard storm.mp4")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "clips_backyard storm.mp4" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
}
