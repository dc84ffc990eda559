package media

import (
	"fmt"
	"strings"
)

const videoMimePrefix = "video/"

// RejectReason classifies why an upload was refused.
type RejectReason string

const (
	RejectWrongType RejectReason = "WrongType"
	RejectTooLarge  RejectReason = "TooLarge"
)

// ValidationError reports a rejected upload.
type ValidationError struct {
	Reason  RejectReason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the declared MIME type and byte size of an upload against
// the ceiling. A file exactly at the limit passes; one byte over is rejected.
func Validate(mimeType string, sizeBytes, limitBytes int64) *ValidationError {
	declared := strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(declared, videoMimePrefix) {
		return &ValidationError{
			Reason:  RejectWrongType,
			Message: fmt.Sprintf("unsupported file type %q: only video files are accepted", mimeType),
		}
	}
	if limitBytes > 0 && sizeBytes > limitBytes {
		return &ValidationError{
			Reason:  RejectTooLarge,
			Message: fmt.Sprintf("file is %d bytes; the limit is %d bytes", sizeBytes, limitBytes),
		}
	}
	return nil
}
