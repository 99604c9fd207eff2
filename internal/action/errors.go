package action

import "errors"

// ErrUnknown is returned when an authoring name matches no action.
var ErrUnknown = errors.New("action: unknown")
