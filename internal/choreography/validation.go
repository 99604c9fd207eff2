package choreography

import (
	"fmt"
	"regexp"

	"github.com/nerrad567/aerial-hk/internal/action"
)

// Validation constants.
const (
	maxNameLength  = 50
	maxDescription = 200
	maxEvents      = 500
	maxOffsetMS    = 3600000 // 1 hour
	minRepeatMS    = 10
	minDigit       = 2
	maxDigit       = 9
	slugPattern    = `^[a-z0-9]+(?:-[a-z0-9]+)*$`
)

var slugRegex = regexp.MustCompile(slugPattern)

// ValidateDefinition checks an authored timeline. It returns the first
// error found, plus warnings that do not prevent loading.
func ValidateDefinition(d Definition) (warnings []string, err error) {
	if err := ValidateName(d.Name); err != nil {
		return nil, err
	}
	if len(d.Description) > maxDescription {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidTimeline, maxDescription)
	}
	if d.Digit != 0 && (d.Digit < minDigit || d.Digit > maxDigit) {
		return nil, fmt.Errorf("%w: digit must be %d-%d", ErrInvalidDigit, minDigit, maxDigit)
	}

	if len(d.Events) == 0 {
		return nil, ErrNoEvents
	}
	if len(d.Events) > maxEvents {
		return nil, fmt.Errorf("%w: exceeds maximum of %d events", ErrInvalidTimeline, maxEvents)
	}

	last := 0
	for i, ev := range d.Events {
		if err := ValidateEvent(ev); err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
		if ev.OffsetMS < last {
			warnings = append(warnings, fmt.Sprintf("event[%d] offset %dms is before the previous event (%dms)", i, ev.OffsetMS, last))
		}
		last = ev.OffsetMS
	}
	return warnings, nil
}

// ValidateName checks that a timeline name is a slug.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if !slugRegex.MatchString(name) {
		return fmt.Errorf("%w: must be lowercase alphanumeric with hyphens", ErrInvalidName)
	}
	return nil
}

// ValidateEvent checks a single event.
func ValidateEvent(ev EventDef) error {
	if _, err := action.Parse(ev.Action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if ev.OffsetMS < 0 || ev.OffsetMS > maxOffsetMS {
		return fmt.Errorf("%w: offset_ms must be 0-%d", ErrInvalidEvent, maxOffsetMS)
	}
	if ev.RepeatMS != 0 && (ev.RepeatMS < minRepeatMS || ev.RepeatMS > maxOffsetMS) {
		return fmt.Errorf("%w: repeat_ms must be 0 or %d-%d", ErrInvalidEvent, minRepeatMS, maxOffsetMS)
	}
	return nil
}
