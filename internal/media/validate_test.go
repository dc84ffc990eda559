package media

import "testing"

const limit = 100 << 20

func TestValidateAcceptsVideoAtLimit(t *testing.T) {
	if err := Validate("video/mp4", limit, limit); err != nil {
		t.Fatalf("file at the limit must pass, got %v", err)
	}
}

func TestValidateRejectsOneByteOverLimit(t *testing.T) {
	err := Validate("video/mp4", limit+1, limit)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if err.Reason != RejectTooLarge {
		t.Fatalf("expected TooLarge, got %s", err.Reason)
	}
}

func TestValidateRejectsNonVideo(t *testing.T) {
	err := Validate("image/png", 1024, limit)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if err.Reason != RejectWrongType {
		t.Fatalf("expected WrongType, got %s", err.Reason)
	}
}

func TestValidateMimePrefixCaseInsensitive(t *testing.T) {
	if err := Validate("VIDEO/QuickTime", 1024, limit); err != nil {
		t.Fatalf("expected case-insensitive prefix match, got %v", err)
	}
}
