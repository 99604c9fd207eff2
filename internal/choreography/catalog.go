package choreography

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/aerial-hk/internal/timeline"
)

// Logger defines the logging interface used by the Catalog.
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

type entry struct {
	def      Definition
	timeline *timeline.Timeline
	builtin  bool
}

// Catalog maps names and digits to timelines. Timelines are immutable once
// added, so the same *timeline.Timeline is handed to every caller.
type Catalog struct {
	entries map[string]*entry
	digits  map[int]string
	mu      sync.RWMutex
	logger  Logger
}

// NewCatalog returns a catalogue holding the built-in timelines.
func NewCatalog() *Catalog {
	c := &Catalog{
		entries: make(map[string]*entry),
		digits:  make(map[int]string),
		logger:  noopLogger{},
	}
	for _, d := range Builtins() {
		tl, err := d.Timeline()
		if err != nil {
			panic(fmt.Sprintf("built-in timeline %s: %v", d.Name, err))
		}
		c.entries[d.Name] = &entry{def: d, timeline: tl, builtin: true}
		if d.Digit != 0 {
			c.digits[d.Digit] = d.Name
		}
	}
	return c
}

// SetLogger sets the logger for the catalogue.
func (c *Catalog) SetLogger(logger Logger) {
	c.logger = logger
}

// LoadFile adds every timeline in a YAML file. Nothing is added unless the
// whole file is valid.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("reading choreography file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}

	type loaded struct {
		def Definition
		tl  *timeline.Timeline
	}
	batch := make([]loaded, 0, len(f.Timelines))
	seen := make(map[string]bool, len(f.Timelines))
	for i, d := range f.Timelines {
		warnings, err := ValidateDefinition(d)
		if err != nil {
			return fmt.Errorf("timelines[%d] (%s): %w", i, d.Name, err)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: %s defined twice", ErrInvalidTimeline, d.Name)
		}
		seen[d.Name] = true
		for _, w := range warnings {
			c.logger.Warn("choreography warning", "timeline", d.Name, "warning", w)
		}
		tl, err := d.Timeline()
		if err != nil {
			return fmt.Errorf("timelines[%d] (%s): %w", i, d.Name, err)
		}
		batch = append(batch, loaded{def: d, tl: tl})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range batch {
		if old, ok := c.entries[l.def.Name]; ok {
			c.logger.Info("timeline replaced", "timeline", l.def.Name, "builtin", old.builtin)
		}
		c.entries[l.def.Name] = &entry{def: l.def, timeline: l.tl}
		if l.def.Digit != 0 {
			c.digits[l.def.Digit] = l.def.Name
		}
	}
	c.logger.Info("choreography loaded", "path", path, "timelines", len(batch))
	return nil
}

// Get returns a timeline by name.
func (c *Catalog) Get(name string) (*timeline.Timeline, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimelineNotFound, name)
	}
	return e.timeline, nil
}

// Digits returns a copy of the digit bindings.
func (c *Catalog) Digits() map[int]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]string, len(c.digits))
	for d, name := range c.digits {
		out[d] = name
	}
	return out
}

// List returns a summary of every timeline sorted by name.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	digitOf := make(map[string]int, len(c.digits))
	for d, name := range c.digits {
		digitOf[name] = d
	}

	out := make([]Summary, 0, len(c.entries))
	for name, e := range c.entries {
		s := Summary{
			Name:        name,
			Description: e.def.Description,
			Digit:       digitOf[name],
			Events:      len(e.timeline.Entries()),
			SlotsNeeded: e.timeline.SlotsNeeded(),
			Builtin:     e.builtin,
		}
		var longest time.Duration
		for _, ev := range e.timeline.Entries() {
			longest = max(longest, ev.Offset)
			if ev.Repeat > 0 {
				s.Repeats = true
			}
		}
		s.DurationMS = longest.Milliseconds()
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of timelines.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
