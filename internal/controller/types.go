package controller

import (
	"time"

	"github.com/nerrad567/aerial-hk/internal/effects"
	"github.com/nerrad567/aerial-hk/internal/input"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/timeline"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Snapshot is a read-only copy of the vehicle state after a tick.
type Snapshot struct {
	At        time.Time               `json:"at"`
	Clock     time.Duration           `json:"clock"`
	Ticks     uint64                  `json:"ticks"`
	Axes      vehicle.Positions       `json:"axes"`
	Lights    []lighting.ChannelState `json:"lights"`
	Volume    int                     `json:"volume"`
	Scheduler timeline.State          `json:"scheduler"`
}

// Audio is the sound player as the controller uses it.
type Audio interface {
	effects.Audio
	Begin()
	Volume() int
}

// Catalog resolves timeline names.
type Catalog interface {
	Get(name string) (*timeline.Timeline, error)
	Digits() map[int]string
}

// Observer is told about handled operator codes and periodic status.
// Calls happen on the control loop and must not block.
type Observer interface {
	CommandHandled(code input.RawCode, symbol string, handled bool)
	StatusChanged(s Snapshot)
}

// Logger defines the logging interface used by the Controller.
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

type noopObserver struct{}

func (noopObserver) CommandHandled(input.RawCode, string, bool) {}
func (noopObserver) StatusChanged(Snapshot)                     {}
