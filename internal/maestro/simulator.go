package maestro

import (
	"sync"

	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Simulator records actuator and light writes instead of sending them.
type Simulator struct {
	mu     sync.Mutex
	axes   map[vehicle.Axis]int
	lights map[lighting.Channel]float64
	logger Logger
}

// NewSimulator returns an empty simulator.
func NewSimulator() *Simulator {
	return &Simulator{
		axes:   make(map[vehicle.Axis]int),
		lights: make(map[lighting.Channel]float64),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the simulator.
func (s *Simulator) SetLogger(logger Logger) {
	s.logger = logger
}

// MoveTo implements vehicle.Driver.
func (s *Simulator) MoveTo(axis vehicle.Axis, position int) error {
	s.mu.Lock()
	s.axes[axis] = position
	s.mu.Unlock()
	s.logger.Debug("simulated move", "axis", axis.String(), "position", position)
	return nil
}

// SetLevel implements lighting.Output.
func (s *Simulator) SetLevel(ch lighting.Channel, level float64) error {
	s.mu.Lock()
	s.lights[ch] = level
	s.mu.Unlock()
	s.logger.Debug("simulated light", "channel", ch.String(), "level", level)
	return nil
}

// Axis returns the last position written to axis.
func (s *Simulator) Axis(axis vehicle.Axis) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.axes[axis]
	return v, ok
}

// Light returns the last level written to ch.
func (s *Simulator) Light(ch lighting.Channel) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lights[ch]
	return v, ok
}
