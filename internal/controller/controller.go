package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/aerial-hk/internal/action"
	"github.com/nerrad567/aerial-hk/internal/choreography"
	"github.com/nerrad567/aerial-hk/internal/command"
	"github.com/nerrad567/aerial-hk/internal/effects"
	"github.com/nerrad567/aerial-hk/internal/input"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/timeline"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Default loop settings.
const (
	DefaultTickInterval   = 5 * time.Millisecond
	DefaultStatusInterval = 250 * time.Millisecond
)

// resetSequence brings every actuator to rest.
var resetSequence = []action.ID{
	action.StopAudio,
	action.BlueFrontOff,
	action.RedBackOff,
	action.TiltLevel,
	action.TurnCentre,
	action.ThrustHover,
	action.TailLightsOff,
	action.LandingLightsOff,
	action.SearchLightsOff,
	action.WeaponOff,
}

// Options configures a Controller.
type Options struct {
	TickInterval   time.Duration
	StatusInterval time.Duration
	Scheduler      timeline.Options
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Model   *vehicle.Model
	Lights  *lighting.Controller
	Audio   Audio
	Catalog Catalog
	Clock   timeline.Clock
	Input   <-chan input.RawCode
}

// Controller owns the vehicle state and runs the control loop.
type Controller struct {
	opts     Options
	model    *vehicle.Model
	lights   *lighting.Controller
	audio    Audio
	catalog  Catalog
	clock    timeline.Clock
	input    <-chan input.RawCode
	effects  *effects.Adapter
	sched    *timeline.Scheduler
	router   *command.Router
	observer Observer
	logger   Logger

	ticks      uint64
	lastStatus time.Duration
	published  bool
	snapshot   atomic.Pointer[Snapshot]
}

// New wires the scheduler, effects and command router over deps.
func New(opts Options, deps Deps) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	if deps.Clock == nil {
		deps.Clock = timeline.NewSystemClock()
	}

	c := &Controller{
		opts:     opts,
		model:    deps.Model,
		lights:   deps.Lights,
		audio:    deps.Audio,
		catalog:  deps.Catalog,
		clock:    deps.Clock,
		input:    deps.Input,
		observer: noopObserver{},
		logger:   noopLogger{},
	}
	c.effects = effects.New(c.model, c.lights, c.audio)
	c.sched = timeline.NewScheduler(opts.Scheduler, c.effects)
	c.router = command.NewRouter(c.effects, c.lights, c.model, c, bindings(c.catalog))
	c.snapshot.Store(&Snapshot{})
	return c
}

// bindings builds router bindings from the catalogue's digits.
func bindings(cat Catalog) command.Bindings {
	b := command.Bindings{
		PowerOn:  choreography.PowerOn,
		PowerOff: choreography.PowerOff,
		Digits:   make(map[command.Symbol]string),
	}
	for d, name := range cat.Digits() {
		if d >= 1 && d <= 9 {
			b.Digits[command.Symbol('0'+d)] = name
		}
	}
	return b
}

// SetLogger sets the logger for the controller and the components it built.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
	c.effects.SetLogger(logger)
	c.sched.SetLogger(logger)
	c.router.SetLogger(logger)
}

// SetObserver sets the observer for commands and status.
func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	c.observer = o
}

// SetTimelineObserver forwards scheduler lifecycle and firings to o.
func (c *Controller) SetTimelineObserver(o timeline.Observer) {
	c.sched.SetObserver(o)
}

// Start brings the vehicle to its power-up state: audio initialised,
// axes neutral and lights off.
func (c *Controller) Start() {
	c.audio.Begin()
	c.model.Neutral()
	c.lights.Update(c.clock.Now())
	c.publish(c.clock.Now(), true)
	c.logger.Info("controller started", "tick", c.opts.TickInterval)
}

// Run ticks until ctx is cancelled, then leaves the vehicle at rest.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Reset()
			now := c.clock.Now()
			c.lights.Update(now)
			c.publish(now, true)
			c.logger.Info("controller stopped", "ticks", c.ticks)
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one loop iteration at the clock's current time.
func (c *Controller) Tick() {
	now := c.clock.Now()
	c.ticks++

	c.sched.Tick(now)

	select {
	case code, ok := <-c.input:
		if ok {
			c.handle(code)
		}
	default:
	}

	c.lights.Update(now)
	c.publish(now, false)
}

// Play starts a timeline by name, preempting whatever is running.
func (c *Controller) Play(name string) error {
	tl, err := c.catalog.Get(name)
	if err != nil {
		return fmt.Errorf("playing %s: %w", name, err)
	}
	c.sched.Start(tl, c.clock.Now())
	return nil
}

// Reset cancels every timer, silences audio, turns every light off and
// returns the axes to neutral.
func (c *Controller) Reset() {
	c.sched.CancelAll()
	for _, id := range resetSequence {
		c.effects.Perform(id)
	}
	c.logger.Debug("vehicle reset")
}

// Snapshot returns the state published after the last tick. It is safe to
// call from any goroutine.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

func (c *Controller) handle(code input.RawCode) {
	var (
		sym command.Symbol
		err error
	)
	switch code.Source {
	case input.SourceIR:
		sym, err = command.TranslateIR(code.Code)
	default:
		sym, err = command.TranslateKey(byte(code.Code))
	}

	if errors.Is(err, command.ErrRepeatCode) {
		return
	}
	if err != nil {
		c.logger.Warn("input ignored", "source", string(code.Source), "error", err)
		c.observer.CommandHandled(code, "", false)
		return
	}

	handled := c.router.Dispatch(sym)
	c.observer.CommandHandled(code, sym.String(), handled)
}

func (c *Controller) publish(now time.Duration, force bool) {
	s := &Snapshot{
		At:        time.Now(),
		Clock:     now,
		Ticks:     c.ticks,
		Axes:      c.model.Positions(),
		Lights:    c.lights.States(),
		Volume:    c.audio.Volume(),
		Scheduler: c.sched.State(),
	}
	c.snapshot.Store(s)

	if force || !c.published || now-c.lastStatus >= c.opts.StatusInterval {
		c.lastStatus = now
		c.published = true
		c.observer.StatusChanged(*s)
	}
}
