package modfile

import (
	"fmt"
)

// ParseError describes a malformed or truncated MOD file.
type ParseError struct {
	Message string

	Offset int

	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
}

// Unwrap returns the sentinel error behind this failure, if any.
// It makes errors.Is(err, ErrUnsupportedChannels) work.
func (e *ParseError) Unwrap() error {
	return e.cause
}
