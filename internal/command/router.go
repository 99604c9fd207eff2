package command

import (
	"github.com/nerrad567/aerial-hk/internal/action"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Performer carries out a single action.
type Performer interface {
	Perform(id action.ID)
}

// LightState reads whether a light channel is lit.
type LightState interface {
	IsOn(ch lighting.Channel) bool
}

// AxisState reads axis positions and their calibration.
type AxisState interface {
	Position(axis vehicle.Axis) int
	Calibration() vehicle.Calibration
}

// Sequencer starts timelines by name and resets the vehicle.
type Sequencer interface {
	Play(name string) error
	Reset()
}

// Bindings names the timelines the router can start.
type Bindings struct {
	PowerOn  string
	PowerOff string
	// Digits maps '1'..'9' to a timeline name.
	Digits map[Symbol]string
}

// Logger defines the logging interface used by the Router.
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

// Router dispatches symbols. It runs on the control loop only.
type Router struct {
	effects  Performer
	lights   LightState
	axes     AxisState
	seq      Sequencer
	bindings Bindings
	logger   Logger
}

// NewRouter creates a router.
func NewRouter(effects Performer, lights LightState, axes AxisState, seq Sequencer, bindings Bindings) *Router {
	return &Router{
		effects:  effects,
		lights:   lights,
		axes:     axes,
		seq:      seq,
		bindings: bindings,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Dispatch handles one symbol and reports whether it did anything.
// Unrecognised symbols and unbound digits are logged and ignored.
func (r *Router) Dispatch(s Symbol) bool {
	switch s {
	case Power:
		if r.lights.IsOn(lighting.Tail) {
			r.play(r.bindings.PowerOff)
		} else {
			r.play(r.bindings.PowerOn)
		}

	case VolumeUp:
		r.effects.Perform(action.VolumeUp)
	case VolumeDown:
		r.effects.Perform(action.VolumeDown)

	case Level:
		r.effects.Perform(action.TiltLevel)
		r.effects.Perform(action.TurnCentre)
		r.effects.Perform(action.ThrustHover)

	case TurnLeft:
		r.effects.Perform(action.TurnLeft)
	case TurnRight:
		r.effects.Perform(action.TurnRight)

	case MoveDown:
		if r.axes.Position(vehicle.Tilt) < r.axes.Calibration().Tilt.Center {
			r.effects.Perform(action.TiltLevel)
		} else {
			r.effects.Perform(action.TiltForward)
		}
	case MoveUp:
		if r.axes.Position(vehicle.Tilt) > r.axes.Calibration().Tilt.Center {
			r.effects.Perform(action.TiltLevel)
		} else {
			r.effects.Perform(action.TiltBackward)
		}

	case ToggleLanding:
		r.toggle(lighting.Landing, action.LandingLightsOn, action.LandingLightsOff)
	case ToggleWeapon:
		r.toggle(lighting.Weapon, action.WeaponOn, action.WeaponOff)
	case ToggleSearch:
		r.toggle(lighting.Search, action.SearchLightsOn, action.SearchLightsOff)

	case StopAudio:
		r.effects.Perform(action.StopAudio)

	default:
		if !s.IsDigit() {
			r.logger.Debug("unrecognised symbol ignored", "symbol", s.String())
			return false
		}
		name, ok := r.bindings.Digits[s]
		if !ok {
			r.logger.Debug("digit not bound", "symbol", s.String())
			return false
		}
		r.seq.Reset()
		r.play(name)
	}

	r.logger.Debug("symbol dispatched", "symbol", s.String())
	return true
}

func (r *Router) toggle(ch lighting.Channel, on, off action.ID) {
	if r.lights.IsOn(ch) {
		r.effects.Perform(off)
		return
	}
	r.effects.Perform(on)
}

func (r *Router) play(name string) {
	if err := r.seq.Play(name); err != nil {
		r.logger.Warn("timeline not started", "timeline", name, "error", err)
	}
}
