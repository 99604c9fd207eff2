//go:build !linux && !darwin

package input

import (
	"context"
	"fmt"
)

// Keyboard is unavailable on this platform.
type Keyboard struct{}

// OpenKeyboard always fails on platforms without termios.
func OpenKeyboard(device string) (*Keyboard, error) {
	return nil, fmt.Errorf("%w: %s: raw keyboard input not supported on this platform", ErrOpenFailed, device)
}

// SetLogger is a no-op.
func (k *Keyboard) SetLogger(Logger) {}

// Run returns immediately.
func (k *Keyboard) Run(context.Context, chan<- RawCode) error { return nil }

// Close is a no-op.
func (k *Keyboard) Close() error { return nil }
