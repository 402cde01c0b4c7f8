package source

import "errors"

// Common source errors.
var (
	// ErrMissing is returned when a document does not exist.
	ErrMissing = errors.New("file not found")
)
