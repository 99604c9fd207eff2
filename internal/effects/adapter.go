// Package effects turns action identifiers into calls on the vehicle's
// collaborators. Each action maps to exactly one call.
package effects

import (
	"github.com/nerrad567/aerial-hk/internal/action"
	"github.com/nerrad567/aerial-hk/internal/audio"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Motion positions the vehicle's axes.
type Motion interface {
	MoveAxisTo(axis vehicle.Axis, target int)
	Thrust(intent vehicle.Intent)
	Calibration() vehicle.Calibration
}

// Lights sets light channel patterns.
type Lights interface {
	SetState(ch lighting.Channel, p lighting.Pattern)
}

// Audio plays sound effects.
type Audio interface {
	Play(track string) bool
	Stop() bool
	VolumeUp() bool
	VolumeDown() bool
	Tracks() audio.Tracks
}

// Logger defines the logging interface used by the Adapter.
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

// Adapter performs actions. It implements timeline.Performer.
type Adapter struct {
	table  map[action.ID]func()
	logger Logger
}

// New builds the action table over the given collaborators.
func New(motion Motion, lights Lights, sound Audio) *Adapter {
	light := func(ch lighting.Channel, p lighting.Pattern) func() {
		return func() { lights.SetState(ch, p) }
	}
	play := func(track func(audio.Tracks) string) func() {
		return func() { sound.Play(track(sound.Tracks())) }
	}
	move := func(axis vehicle.Axis, to func(vehicle.Range) int) func() {
		return func() {
			r := motion.Calibration().Range(axis)
			motion.MoveAxisTo(axis, to(r))
		}
	}
	thrust := func(intent vehicle.Intent) func() {
		return func() { motion.Thrust(intent) }
	}
	maxOf := func(r vehicle.Range) int { return r.Max }
	minOf := func(r vehicle.Range) int { return r.Min }
	centreOf := func(r vehicle.Range) int { return r.Center }

	return &Adapter{
		logger: noopLogger{},
		table: map[action.ID]func(){
			action.TailLightsOn:       light(lighting.Tail, lighting.On),
			action.TailLightsOff:      light(lighting.Tail, lighting.Off),
			action.LandingLightsOn:    light(lighting.Landing, lighting.FadeOn),
			action.LandingLightsOnOff: light(lighting.Landing, lighting.Breathe),
			action.LandingLightsOff:   light(lighting.Landing, lighting.FadeOff),
			action.SearchLightsOn:     light(lighting.Search, lighting.On),
			action.SearchLightsOff:    light(lighting.Search, lighting.Off),
			action.BlueFrontFlash:     light(lighting.BlueFront, lighting.Flash),
			action.BlueFrontOn:        light(lighting.BlueFront, lighting.On),
			action.BlueFrontOff:       light(lighting.BlueFront, lighting.Off),
			action.RedBackFlash:       light(lighting.RedBack, lighting.Flash),
			action.RedBackOn:          light(lighting.RedBack, lighting.On),
			action.RedBackOff:         light(lighting.RedBack, lighting.Off),
			action.WeaponOn:           light(lighting.Weapon, lighting.Flash),
			action.WeaponBurst:        light(lighting.Weapon, lighting.Burst),
			action.WeaponOff:          light(lighting.Weapon, lighting.Off),

			action.PlayTakeoff: play(func(t audio.Tracks) string { return t.Takeoff }),
			action.PlayFlyMore: play(func(t audio.Tracks) string { return t.FlyMore }),
			action.PlayLanding: play(func(t audio.Tracks) string { return t.Landing }),
			action.PlayScene01: play(func(t audio.Tracks) string { return t.Scene01 }),
			action.StopAudio:   func() { sound.Stop() },
			action.VolumeUp:    func() { sound.VolumeUp() },
			action.VolumeDown:  func() { sound.VolumeDown() },

			action.TiltForward:  move(vehicle.Tilt, maxOf),
			action.TiltLevel:    move(vehicle.Tilt, centreOf),
			action.TiltBackward: move(vehicle.Tilt, minOf),
			action.TurnLeft:     move(vehicle.Turn, maxOf),
			action.TurnCentre:   move(vehicle.Turn, centreOf),
			action.TurnRight:    move(vehicle.Turn, minOf),

			action.ThrustBack:    thrust(vehicle.Back),
			action.ThrustHover:   thrust(vehicle.Hover),
			action.ThrustForward: thrust(vehicle.Forward),
			action.ThrustLeft:    thrust(vehicle.Left),
			action.ThrustRight:   thrust(vehicle.Right),
		},
	}
}

// SetLogger sets the logger for the adapter.
func (a *Adapter) SetLogger(logger Logger) {
	a.logger = logger
}

// Perform carries out one action. Unknown identifiers are logged and ignored.
func (a *Adapter) Perform(id action.ID) {
	fn, ok := a.table[id]
	if !ok {
		a.logger.Warn("unknown action ignored", "action", id.String())
		return
	}
	fn()
}
