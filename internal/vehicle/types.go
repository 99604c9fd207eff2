package vehicle

import (
	"fmt"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

// Axis identifies one positional actuator.
type Axis uint8

// Axes in driver channel order.
const (
	ThrustLeft Axis = iota
	ThrustRight
	Tilt
	Turn

	axisCount
)

var axisNames = [axisCount]string{"thrust_left", "thrust_right", "tilt", "turn"}

// Axes lists every axis.
var Axes = [axisCount]Axis{ThrustLeft, ThrustRight, Tilt, Turn}

func (a Axis) String() string {
	if a < axisCount {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis resolves a configuration key such as "thrust_left".
func ParseAxis(name string) (Axis, bool) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), true
		}
	}
	return 0, false
}

// Range is the safe travel of an axis.
type Range struct {
	Min    int
	Max    int
	Center int
}

// Clamp limits v to [Min, Max].
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Intent is a coordinated command for both thrusters.
type Intent uint8

// Thrust intents.
const (
	Hover Intent = iota
	Forward
	Back
	Left
	Right
	Full
)

var intentNames = [...]string{"hover", "forward", "back", "left", "right", "full"}

func (i Intent) String() string {
	if int(i) < len(intentNames) {
		return intentNames[i]
	}
	return fmt.Sprintf("intent(%d)", uint8(i))
}

// Calibration is the per-build geometry of the vehicle.
type Calibration struct {
	Thrust Range
	Tilt   Range
	Turn   Range
	// ThrustOffset is the centre offset used for directional thrust.
	ThrustOffset int
	// FullOffset is the centre offset used for full thrust.
	FullOffset int
}

// CalibrationFromConfig converts the calibration section of config.yaml.
func CalibrationFromConfig(cfg config.CalibrationConfig) Calibration {
	toRange := func(a config.AxisCalibration) Range {
		return Range{Min: a.Min, Max: a.Max, Center: a.Center}
	}
	return Calibration{
		Thrust:       toRange(cfg.Thrust.AxisCalibration),
		Tilt:         toRange(cfg.Tilt),
		Turn:         toRange(cfg.Turn),
		ThrustOffset: cfg.Thrust.Offset,
		FullOffset:   cfg.Thrust.FullOffset,
	}
}

// Range returns the calibrated travel of axis.
func (c Calibration) Range(axis Axis) Range {
	switch axis {
	case Tilt:
		return c.Tilt
	case Turn:
		return c.Turn
	default:
		return c.Thrust
	}
}

// Positions is a copy of every axis position.
type Positions struct {
	ThrustLeft  int `json:"thrust_left"`
	ThrustRight int `json:"thrust_right"`
	Tilt        int `json:"tilt"`
	Turn        int `json:"turn"`
}

// Driver moves a physical actuator. Implementations may clamp again.
type Driver interface {
	MoveTo(axis Axis, position int) error
}

// Observer is told about every commanded move.
type Observer interface {
	AxisMoved(axis Axis, position int)
}

// Logger defines the logging interface used by the Model.
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

func (noopObserver) AxisMoved(Axis, int) {}
