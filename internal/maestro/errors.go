package maestro

import "errors"

// Domain-specific errors for the maestro package.
var (
	// ErrOpenFailed indicates the serial port could not be opened.
	ErrOpenFailed = errors.New("maestro: failed to open port")

	// ErrUnknownAxis indicates a servo mapping names an axis the vehicle does not have.
	ErrUnknownAxis = errors.New("maestro: unknown axis")

	// ErrUnknownLight indicates a light mapping names an unknown channel.
	ErrUnknownLight = errors.New("maestro: unknown light channel")

	// ErrInvalidChannel indicates a channel number outside 0..23.
	ErrInvalidChannel = errors.New("maestro: invalid channel")

	// ErrUnmapped indicates a write to an axis or light with no channel.
	ErrUnmapped = errors.New("maestro: no channel mapped")

	// ErrController indicates the controller reported an error bitmap.
	ErrController = errors.New("maestro: controller error")
)
