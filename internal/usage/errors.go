package usage

import "errors"

// ErrLimitReached indicates the session has no credits left for the request.
var ErrLimitReached = errors.New("credit limit reached")
