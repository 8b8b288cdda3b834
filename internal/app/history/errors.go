package history

import "errors"

var ErrRunNotFound = errors.New("run not found")
var ErrRunIDRequired = errors.New("run id is required")
var ErrInvalidLimit = errors.New("limit must be positive")
