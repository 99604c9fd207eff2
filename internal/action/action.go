// Package action enumerates everything a timeline or a command can make the
// vehicle do. Timelines carry these identifiers as plain data; the effects
// package maps each one to exactly one collaborator call.
package action

import "fmt"

// ID identifies one primitive effect. The zero value is the table sentinel.
type ID uint8

// Action identifiers. New identifiers are appended; the numeric values are
// only meaningful inside one process.
const (
	None ID = iota

	TailLightsOn
	TailLightsOff
	LandingLightsOn
	LandingLightsOnOff
	LandingLightsOff
	SearchLightsOn
	SearchLightsOff
	BlueFrontFlash
	BlueFrontOn
	BlueFrontOff
	RedBackFlash
	RedBackOn
	RedBackOff
	WeaponOn
	WeaponBurst
	WeaponOff

	PlayTakeoff
	PlayFlyMore
	PlayLanding
	PlayScene01
	StopAudio
	VolumeUp
	VolumeDown

	TiltForward
	TiltLevel
	TiltBackward
	TurnLeft
	TurnCentre
	TurnRight
	ThrustBack
	ThrustHover
	ThrustForward
	ThrustLeft
	ThrustRight

	count
)

var names = [count]string{
	None:               "none",
	TailLightsOn:       "tail-lights-on",
	TailLightsOff:      "tail-lights-off",
	LandingLightsOn:    "landing-lights-on",
	LandingLightsOnOff: "landing-lights-on-off",
	LandingLightsOff:   "landing-lights-off",
	SearchLightsOn:     "search-lights-on",
	SearchLightsOff:    "search-lights-off",
	BlueFrontFlash:     "blue-front-flash",
	BlueFrontOn:        "blue-front-on",
	BlueFrontOff:       "blue-front-off",
	RedBackFlash:       "red-back-flash",
	RedBackOn:          "red-back-on",
	RedBackOff:         "red-back-off",
	WeaponOn:           "weapon-on",
	WeaponBurst:        "weapon-burst",
	WeaponOff:          "weapon-off",
	PlayTakeoff:        "play-takeoff",
	PlayFlyMore:        "play-fly-more",
	PlayLanding:        "play-landing",
	PlayScene01:        "play-scene-01",
	StopAudio:          "stop-audio",
	VolumeUp:           "volume-up",
	VolumeDown:         "volume-down",
	TiltForward:        "tilt-forward",
	TiltLevel:          "tilt-level",
	TiltBackward:       "tilt-backward",
	TurnLeft:           "turn-left",
	TurnCentre:         "turn-centre",
	TurnRight:          "turn-right",
	ThrustBack:         "thrust-back",
	ThrustHover:        "thrust-hover",
	ThrustForward:      "thrust-forward",
	ThrustLeft:         "thrust-left",
	ThrustRight:        "thrust-right",
}

var byName = func() map[string]ID {
	m := make(map[string]ID, len(names))
	for id, name := range names {
		m[name] = ID(id)
	}
	return m
}()

// String returns the authoring name, e.g. "tail-lights-on".
func (id ID) String() string {
	if id < count {
		return names[id]
	}
	return fmt.Sprintf("action(%d)", uint8(id))
}

// Valid reports whether id names a real effect. None is not valid.
func (id ID) Valid() bool {
	return id > None && id < count
}

// Parse resolves an authoring name. It never returns None.
func Parse(name string) (ID, error) {
	id, ok := byName[name]
	if !ok || id == None {
		return None, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return id, nil
}

// All returns every valid identifier in declaration order.
func All() []ID {
	ids := make([]ID, 0, count-1)
	for id := None + 1; id < count; id++ {
		ids = append(ids, id)
	}
	return ids
}

// MarshalText implements encoding.TextMarshaler so identifiers appear by name in JSON.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
