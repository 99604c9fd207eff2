package timeline

import (
	"time"

	"github.com/nerrad567/aerial-hk/internal/action"
)

// Event is one entry of a timeline. Repeat zero means fire once.
type Event struct {
	Action action.ID     `json:"action"`
	Offset time.Duration `json:"offset"`
	Repeat time.Duration `json:"repeat,omitempty"`
}

// Timeline is an ordered, immutable table of events. An event whose action
// is action.None ends the table; anything after it is ignored.
type Timeline struct {
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// Entries returns the events before the sentinel.
func (t *Timeline) Entries() []Event {
	if t == nil {
		return nil
	}
	for i, ev := range t.Events {
		if ev.Action == action.None {
			return t.Events[:i]
		}
	}
	return t.Events
}

// SlotsNeeded returns how many timer slots the timeline needs to run
// without the step cursor.
func (t *Timeline) SlotsNeeded() int {
	n := 0
	for _, ev := range t.Entries() {
		n++
		if ev.Repeat > 0 {
			n++
		}
	}
	return n
}

// Mode records how a run was armed.
type Mode string

// Run modes.
const (
	ModeTimers  Mode = "timers"
	ModeStepped Mode = "stepped"
)

// EndReason records why a run stopped.
type EndReason string

// End reasons.
const (
	EndFinished  EndReason = "finished"
	EndCancelled EndReason = "cancelled"
)

// Run describes one start of a timeline.
type Run struct {
	ID         string        `json:"id"`
	Timeline   string        `json:"timeline"`
	Mode       Mode          `json:"mode"`
	StartClock time.Duration `json:"start_clock"`
	Events     int           `json:"events"`
}

// Firing describes one action leaving the scheduler.
type Firing struct {
	RunID    string        `json:"run_id"`
	Timeline string        `json:"timeline"`
	Action   action.ID     `json:"action"`
	Due      time.Duration `json:"due"`
	At       time.Duration `json:"at"`
	Repeat   bool          `json:"repeat"`
}

// Lateness is how long after its due time the action fired.
func (f Firing) Lateness() time.Duration {
	return f.At - f.Due
}

// State is a snapshot of the scheduler.
type State struct {
	Active     string        `json:"active,omitempty"`
	RunID      string        `json:"run_id,omitempty"`
	Mode       Mode          `json:"mode,omitempty"`
	StartClock time.Duration `json:"start_clock"`
	Cursor     int           `json:"cursor"`
	Pending    int           `json:"pending"`
	Capacity   int           `json:"capacity"`
}

// Performer carries out a fired action.
type Performer interface {
	Perform(id action.ID)
}

// PerformerFunc adapts a function to Performer.
type PerformerFunc func(id action.ID)

// Perform calls f(id).
func (f PerformerFunc) Perform(id action.ID) { f(id) }

// Observer is told about run lifecycle and every firing. Calls happen on
// the control loop and must not block.
type Observer interface {
	TimelineStarted(run Run)
	ActionFired(f Firing)
	TimelineEnded(run Run, reason EndReason)
}

// Logger defines the logging interface used by the Scheduler.
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

func (noopObserver) TimelineStarted(Run)          {}
func (noopObserver) ActionFired(Firing)           {}
func (noopObserver) TimelineEnded(Run, EndReason) {}
