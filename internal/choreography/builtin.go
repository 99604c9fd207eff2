package choreography

// Built-in timeline names.
const (
	PowerOn    = "power-on"
	PowerOff   = "power-off"
	CutScene01 = "cut-scene-01"
)

func ev(a string, offsetMS int) EventDef { return EventDef{Action: a, OffsetMS: offsetMS} }

// Builtins returns the timelines every vehicle knows.
func Builtins() []Definition {
	return []Definition{
		{
			Name:        PowerOn,
			Description: "Lights up, takes off and keeps the engine sound looping",
			Events: []EventDef{
				ev("tail-lights-on", 0),
				ev("play-takeoff", 500),
				ev("landing-lights-on-off", 550),
				ev("search-lights-on", 5500),
				{Action: "play-fly-more", OffsetMS: 15000, RepeatMS: 30000},
			},
		},
		{
			Name:        PowerOff,
			Description: "Lands, centres every axis and goes dark",
			Events: []EventDef{
				ev("play-landing", 0),
				ev("tilt-level", 500),
				ev("landing-lights-on-off", 1000),
				ev("turn-centre", 1500),
				ev("search-lights-off", 2000),
				ev("thrust-hover", 3500),
				ev("tail-lights-off", 10000),
			},
		},
		{
			Name:        CutScene01,
			Description: "Scene 01 soundtrack with the full light show",
			Digit:       1,
			Events: []EventDef{
				ev("tail-lights-on", 0),
				ev("play-scene-01", 0),
				ev("landing-lights-on-off", 2000),
				ev("tilt-forward", 6000),
				ev("blue-front-flash", 9200),
				ev("red-back-flash", 9300),
				ev("search-lights-on", 13000),
				ev("tilt-backward", 13000),
				ev("turn-right", 14000),
				ev("blue-front-flash", 16500),
				ev("red-back-flash", 18000),
				ev("tilt-forward", 20000),
				ev("weapon-burst", 22000),
				ev("blue-front-flash", 22000),
				ev("blue-front-flash", 22700),
				ev("red-back-flash", 23060),
				ev("turn-left", 24000),
				ev("tilt-level", 28000),
				ev("turn-right", 32000),
				ev("tilt-forward", 36000),
				ev("red-back-flash", 38600),
				ev("blue-front-on", 40500),
			},
		},
	}
}
