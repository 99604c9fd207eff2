package input

import "errors"

// Domain-specific errors for the input package.
var (
	// ErrOpenFailed indicates an input device could not be opened.
	ErrOpenFailed = errors.New("input: failed to open device")

	// ErrBadCode indicates an IR line that is not a hex code.
	ErrBadCode = errors.New("input: malformed IR code")
)
