package audio

import "errors"

// Domain-specific errors for the audio package.
var (
	// ErrOpenFailed indicates the serial port could not be opened.
	ErrOpenFailed = errors.New("audio: failed to open port")

	// ErrNotAcknowledged indicates the module did not answer OK.
	ErrNotAcknowledged = errors.New("audio: command not acknowledged")
)
