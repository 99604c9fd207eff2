package lighting

import (
	"fmt"
	"time"
)

// Channel identifies one light output.
type Channel uint8

// Light channels.
const (
	Tail Channel = iota
	Landing
	Search
	BlueFront
	RedBack
	Weapon

	channelCount
)

var channelNames = [channelCount]string{"tail", "landing", "search", "blue_front", "red_back", "weapon"}

// Channels lists every channel.
var Channels = [channelCount]Channel{Tail, Landing, Search, BlueFront, RedBack, Weapon}

func (c Channel) String() string {
	if c < channelCount {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// ParseChannel resolves a configuration key such as "blue_front".
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Pattern is what a channel is doing.
type Pattern uint8

// Patterns.
const (
	Off Pattern = iota
	On
	Flash
	Burst
	FadeOn
	FadeOff
	Breathe
)

var patternNames = [...]string{"off", "on", "flash", "burst", "fade-on", "fade-off", "breathe"}

func (p Pattern) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Pattern timing.
const (
	FadeDuration    = 1500 * time.Millisecond
	BreatheHold     = 7000 * time.Millisecond
	BurstCycles     = 2
	WeaponBlink     = 50 * time.Millisecond
	DefaultBlink    = 250 * time.Millisecond
	breatheDuration = 2*FadeDuration + BreatheHold
)

// blink returns the on (and off) time of a flashing channel.
func blink(ch Channel) time.Duration {
	if ch == Weapon {
		return WeaponBlink
	}
	return DefaultBlink
}

// ChannelState is a read-only view of one channel.
type ChannelState struct {
	Channel string  `json:"channel"`
	Pattern Pattern `json:"pattern"`
	Level   float64 `json:"level"`
}

// Output writes a brightness level (0 dark, 1 full) to a physical channel.
type Output interface {
	SetLevel(ch Channel, level float64) error
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
