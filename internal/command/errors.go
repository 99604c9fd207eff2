package command

import "errors"

// Domain-specific errors for the command package.
var (
	// ErrUnknownKey indicates a keystroke with no symbol.
	ErrUnknownKey = errors.New("command: unknown key")

	// ErrUnknownCode indicates an infra-red code with no symbol.
	ErrUnknownCode = errors.New("command: unknown infra-red code")

	// ErrRepeatCode indicates the NEC repeat code sent while a remote key is held.
	ErrRepeatCode = errors.New("command: repeat code")
)
