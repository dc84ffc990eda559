package analyses

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrStatusConflict  = errors.New("analysis status changed concurrently")
	ErrNoMedia         = errors.New("no media uploaded")
	ErrQueryRequired   = errors.New("query text is required for this task")
	ErrUnknownTask     = errors.New("unknown task")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInFlight        = errors.New("an analysis is already in flight")
	ErrNotCancelable   = errors.New("analysis is not in a cancelable state")
	ErrNotCompleted    = errors.New("analysis has not completed")
)

const (
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeProviderTimeout = "PROVIDER_TIMEOUT"
	ErrorCodeSchemaMismatch  = "PROVIDER_SCHEMA_MISMATCH"
	ErrorCodeCanceled        = "CANCELED"
	ErrorCodeStorage         = "STORAGE_ERROR"
	ErrorCodeInternal        = "INTERNAL_ERROR"
)
