package choreography

import (
	"fmt"
	"time"

	"github.com/nerrad567/aerial-hk/internal/action"
	"github.com/nerrad567/aerial-hk/internal/timeline"
)

// File is the layout of a choreography YAML file.
type File struct {
	Timelines []Definition `yaml:"timelines"`
}

// Definition is an authored timeline.
type Definition struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Digit       int        `yaml:"digit,omitempty" json:"digit,omitempty"`
	Events      []EventDef `yaml:"events" json:"events"`
}

// EventDef is one authored event. Repeat zero fires once.
type EventDef struct {
	Action   string `yaml:"action" json:"action"`
	OffsetMS int    `yaml:"offset_ms" json:"offset_ms"`
	RepeatMS int    `yaml:"repeat_ms,omitempty" json:"repeat_ms,omitempty"`
}

// Timeline converts a validated definition into a sentinel-terminated table.
func (d Definition) Timeline() (*timeline.Timeline, error) {
	tl := &timeline.Timeline{Name: d.Name, Events: make([]timeline.Event, 0, len(d.Events)+1)}
	for i, ev := range d.Events {
		id, err := action.Parse(ev.Action)
		if err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
		tl.Events = append(tl.Events, timeline.Event{
			Action: id,
			Offset: time.Duration(ev.OffsetMS) * time.Millisecond,
			Repeat: time.Duration(ev.RepeatMS) * time.Millisecond,
		})
	}
	tl.Events = append(tl.Events, timeline.Event{Action: action.None})
	return tl, nil
}

// Summary describes a catalogue entry for listings.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Digit       int    `json:"digit,omitempty"`
	Events      int    `json:"events"`
	SlotsNeeded int    `json:"slots_needed"`
	DurationMS  int64  `json:"duration_ms"`
	Repeats     bool   `json:"repeats"`
	Builtin     bool   `json:"builtin"`
}
