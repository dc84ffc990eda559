package media

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	ErrorCodeWrongType = "UPLOAD_WRONG_TYPE"
	ErrorCodeTooLarge  = "UPLOAD_TOO_LARGE"
)
