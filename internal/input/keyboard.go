//go:build linux || darwin

package input

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Keyboard reads keystrokes from a terminal in raw mode.
type Keyboard struct {
	fd     int
	old    *unix.Termios
	logger Logger
	once   sync.Once
}

// OpenKeyboard opens device (usually /dev/tty) and switches it to raw mode:
// no echo, no line buffering, one byte per read. Output processing and
// signal keys stay enabled so logs still render and Ctrl-C still works.
// Close restores the previous settings.
func OpenKeyboard(device string) (*Keyboard, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, device, err)
	}

	old, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: %s is not a terminal: %w", ErrOpenFailed, device, err)
	}

	raw := *old
	raw.Iflag &^= unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1 // 100 ms, so cancellation is noticed

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: set raw mode: %w", ErrOpenFailed, device, err)
	}

	return &Keyboard{fd: fd, old: old, logger: noopLogger{}}, nil
}

// SetLogger sets the logger for the keyboard.
func (k *Keyboard) SetLogger(logger Logger) {
	k.logger = logger
}

// Run sends one code per keystroke until ctx is cancelled.
func (k *Keyboard) Run(ctx context.Context, out chan<- RawCode) error {
	k.logger.Info("keyboard input started")
	return readKeys(ctx, func(b []byte) (int, error) {
		n, err := unix.Read(k.fd, b)
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}, out)
}

// Close restores the terminal and closes it.
func (k *Keyboard) Close() error {
	var err error
	k.once.Do(func() {
		if setErr := unix.IoctlSetTermios(k.fd, ioctlSetTermios, k.old); setErr != nil {
			err = fmt.Errorf("restoring terminal: %w", setErr)
		}
		if closeErr := unix.Close(k.fd); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}
