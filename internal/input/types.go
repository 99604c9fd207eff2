package input

import (
	"context"
	"time"
)

// Source names the device a code came from.
type Source string

// Sources.
const (
	SourceKeyboard Source = "keyboard"
	SourceIR       Source = "ir"
)

// RawCode is one untranslated input event.
type RawCode struct {
	Source Source
	Code   uint32
	At     time.Time
}

// Producer sends raw codes until ctx is cancelled or its device fails.
type Producer interface {
	Run(ctx context.Context, out chan<- RawCode) error
	Close() error
}

// Logger defines the logging interface used by producers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// send delivers code unless ctx ends first.
func send(ctx context.Context, out chan<- RawCode, code RawCode) bool {
	select {
	case out <- code:
		return true
	case <-ctx.Done():
		return false
	}
}
