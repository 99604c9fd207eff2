package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/aerial-hk/internal/journal"
)

// Event kinds, used as MQTT topic suffixes and WebSocket message types.
const (
	KindTimelineStarted = "timeline_started"
	KindActionFired     = "action_fired"
	KindTimelineEnded   = "timeline_ended"
	KindAxisMoved       = "axis_moved"
	KindAudioCommand    = "audio_command"
	KindCommand         = "command"
	KindStatus          = "status"
)

// Kinds lists every event kind in the order they are documented.
func Kinds() []string {
	return []string{
		KindTimelineStarted,
		KindActionFired,
		KindTimelineEnded,
		KindAxisMoved,
		KindAudioCommand,
		KindCommand,
		KindStatus,
	}
}

// DefaultQueueSize is used when the configured size is not positive.
const DefaultQueueSize = 256

// RunEvent describes a timeline run starting or ending.
type RunEvent struct {
	RunID     string  `json:"run_id"`
	Timeline  string  `json:"timeline"`
	Mode      string  `json:"mode"`
	Events    int     `json:"events"`
	Reason    string  `json:"reason,omitempty"`
	Fired     int     `json:"fired,omitempty"`
	MaxLateMS float64 `json:"max_late_ms,omitempty"`
}

// FiringEvent describes one action leaving the scheduler.
type FiringEvent struct {
	RunID      string  `json:"run_id"`
	Timeline   string  `json:"timeline"`
	Action     string  `json:"action"`
	Repeat     bool    `json:"repeat"`
	LatenessMS float64 `json:"lateness_ms"`
}

// AxisEvent describes one actuator move.
type AxisEvent struct {
	Axis     string `json:"axis"`
	Position int    `json:"position"`
}

// AudioEvent describes one command sent to the sound module.
type AudioEvent struct {
	Command   string  `json:"command"`
	Acked     bool    `json:"acked"`
	LatencyMS float64 `json:"latency_ms"`
}

// CommandEvent describes one operator code.
type CommandEvent struct {
	Source  string `json:"source"`
	RawCode string `json:"raw_code"`
	Symbol  string `json:"symbol,omitempty"`
	Handled bool   `json:"handled"`
}

// EventPublisher sends events to a message broker.
type EventPublisher interface {
	PublishEvent(kind string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// MetricsWriter records time-series points.
type MetricsWriter interface {
	WriteFiring(timeline, action string, lateness time.Duration, at time.Time)
	WriteAxisPosition(axis string, position int, at time.Time)
	WriteAudioCommand(command string, acked bool, latency time.Duration, at time.Time)
}

// Broadcaster pushes events to live clients.
type Broadcaster interface {
	Broadcast(kind string, payload any)
}

// Journal persists runs and commands.
type Journal interface {
	StartRun(ctx context.Context, run *journal.RunEntry) error
	EndRun(ctx context.Context, id, status string, fired int, maxLateMS float64, at time.Time) error
	LogCommand(ctx context.Context, cmd *journal.CommandEntry) error
}

// Sinks are the Publisher's destinations. Nil sinks are skipped.
type Sinks struct {
	MQTT       EventPublisher
	StateTopic string // retained topic for status snapshots
	Metrics    MetricsWriter
	Hub        Broadcaster
	Journal    Journal
}

// Logger defines the logging interface used by the Publisher.
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

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
