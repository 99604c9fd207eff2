package choreography

import "errors"

// Domain errors for the choreography package.
//
//	if errors.Is(err, choreography.ErrTimelineNotFound) {
//	    // handle unknown name
//	}
var (
	// ErrTimelineNotFound is returned when a timeline name does not exist.
	ErrTimelineNotFound = errors.New("timeline: not found")

	// ErrInvalidTimeline is returned when timeline validation fails.
	ErrInvalidTimeline = errors.New("timeline: invalid")

	// ErrInvalidName is returned when a timeline name is not a slug.
	ErrInvalidName = errors.New("timeline: invalid name")

	// ErrInvalidEvent is returned when an event is invalid.
	ErrInvalidEvent = errors.New("timeline: invalid event")

	// ErrNoEvents is returned when a timeline has no events.
	ErrNoEvents = errors.New("timeline: no events")

	// ErrInvalidDigit is returned when a digit binding is out of range.
	ErrInvalidDigit = errors.New("timeline: invalid digit")

	// ErrInvalidFile is returned when the choreography file cannot be parsed.
	ErrInvalidFile = errors.New("timeline: invalid file")
)
