package timeline

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/aerial-hk/internal/action"
)

// Default scheduler settings.
const (
	DefaultCapacity     = 16
	DefaultStepInterval = 10 * time.Millisecond

	// minCapacity leaves room for the stepper's two driver slots.
	minCapacity = 2
)

// Options configures a Scheduler.
type Options struct {
	// Capacity is the number of timer slots.
	Capacity int
	// StepInterval is the period of the stepper driver in stepped mode.
	StepInterval time.Duration
}

// Scheduler runs at most one timeline at a time against a Performer.
type Scheduler struct {
	timers       *table
	stepInterval time.Duration
	performer    Performer
	observer     Observer
	logger       Logger

	run       *Run
	entries   []Event
	cursor    int
	stepperID uint64
	stepped   bool
}

// NewScheduler creates a scheduler. Zero options fall back to defaults.
func NewScheduler(opts Options, performer Performer) *Scheduler {
	if opts.Capacity < minCapacity {
		opts.Capacity = DefaultCapacity
	}
	if opts.StepInterval <= 0 {
		opts.StepInterval = DefaultStepInterval
	}
	return &Scheduler{
		timers:       newTable(opts.Capacity),
		stepInterval: opts.StepInterval,
		performer:    performer,
		observer:     noopObserver{},
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// SetObserver sets the observer for run lifecycle and firings.
func (s *Scheduler) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// Start cancels whatever is pending and arms tl from now. Starting the
// timeline that is already running restarts it from offset zero.
func (s *Scheduler) Start(tl *Timeline, now time.Duration) Run {
	s.CancelAll()

	s.entries = tl.Entries()
	s.cursor = 0
	s.stepped = tl.SlotsNeeded() > len(s.timers.slots)

	run := Run{
		ID:         uuid.NewString(),
		Timeline:   tl.Name,
		Mode:       ModeTimers,
		StartClock: now,
		Events:     len(s.entries),
	}

	if s.stepped {
		run.Mode = ModeStepped
		s.timers.arm(task{due: now, step: true})
		s.stepperID, _ = s.timers.arm(task{due: now + s.stepInterval, period: s.stepInterval, step: true})
	} else {
		for _, ev := range s.entries {
			s.timers.setTimeout(ev.Action, now+ev.Offset)
			if ev.Repeat > 0 {
				id, _ := s.timers.setInterval(ev.Action, now, ev.Repeat)
				s.timers.delay(id, ev.Offset)
			}
		}
	}

	s.run = &run
	s.logger.Info("timeline started",
		"timeline", run.Timeline,
		"run_id", run.ID,
		"mode", string(run.Mode),
		"events", run.Events,
	)
	s.observer.TimelineStarted(run)
	return run
}

// Tick fires every timer due at or before now.
func (s *Scheduler) Tick(now time.Duration) {
	if s.stepped {
		s.tickStepped(now)
	} else {
		for _, tk := range s.timers.due(now) {
			// An earlier firing in this tick may have cancelled this timer.
			if s.timers.find(tk.id) == nil {
				continue
			}
			s.timers.complete(tk.id, now)
			s.fire(tk.action, tk.due, now, tk.repeat)
		}
	}

	if s.run != nil && s.timers.pending() == 0 {
		s.end(EndFinished)
	}
}

// pending is one firing collected during a stepped tick.
type pending struct {
	index  int
	id     uint64 // timer of a repeat, zero for a stepped entry
	action action.ID
	due    time.Duration
	repeat bool
}

// tickStepped merges the entries the cursor reaches with the repeats that
// are due, then fires them by authoring index. At one index the entry fires
// before its repeat, the same order timer mode arms them in.
func (s *Scheduler) tickStepped(now time.Duration) {
	run := s.run
	var batch []pending
	for _, tk := range s.timers.due(now) {
		if s.timers.find(tk.id) == nil {
			continue
		}
		if tk.step {
			s.timers.complete(tk.id, now)
			batch = append(batch, s.step(now)...)
			continue
		}
		batch = append(batch, pending{index: tk.index, id: tk.id, action: tk.action, due: tk.due, repeat: true})
	}

	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].index != batch[j].index {
			return batch[i].index < batch[j].index
		}
		return !batch[i].repeat && batch[j].repeat
	})

	for _, p := range batch {
		if s.run != run {
			return
		}
		if p.repeat {
			if s.timers.find(p.id) == nil {
				continue
			}
			s.timers.complete(p.id, now)
		}
		s.fire(p.action, p.due, now, p.repeat)
	}
}

// CancelAll drops every pending timer. Nothing armed before the call fires after it.
func (s *Scheduler) CancelAll() {
	s.timers.cancelAll()
	s.stepperID = 0
	s.cursor = 0
	s.entries = nil
	if s.run != nil {
		s.end(EndCancelled)
	}
}

// State returns a snapshot of the scheduler.
func (s *Scheduler) State() State {
	st := State{
		Cursor:   s.cursor,
		Pending:  s.timers.pending(),
		Capacity: len(s.timers.slots),
	}
	if s.run != nil {
		st.Active = s.run.Timeline
		st.RunID = s.run.ID
		st.Mode = s.run.Mode
		st.StartClock = s.run.StartClock
	}
	return st
}

// step advances the cursor past every entry whose offset has elapsed and
// returns them unfired. Repeating entries get an interval timer; one already
// due is returned too. At the end of the table the stepper cancels its own
// driver.
func (s *Scheduler) step(now time.Duration) []pending {
	if s.run == nil {
		return nil
	}
	run := s.run
	elapsed := now - run.StartClock

	var out []pending
	for s.cursor < len(s.entries) && s.entries[s.cursor].Offset <= elapsed {
		i, ev := s.cursor, s.entries[s.cursor]
		s.cursor++
		out = append(out, pending{index: i, action: ev.Action, due: run.StartClock + ev.Offset})

		if ev.Repeat > 0 {
			first := run.StartClock + ev.Offset + ev.Repeat
			id, ok := s.timers.arm(task{action: ev.Action, due: first, period: ev.Repeat, repeat: true, index: i})
			switch {
			case !ok:
				s.logger.Warn("timer table full, repeat dropped",
					"timeline", run.Timeline,
					"action", ev.Action.String(),
				)
			case first <= now:
				out = append(out, pending{index: i, id: id, action: ev.Action, due: first, repeat: true})
			}
		}
	}

	if s.cursor >= len(s.entries) && s.stepperID != 0 {
		s.timers.cancel(s.stepperID)
		s.stepperID = 0
		s.logger.Debug("step cursor reached end", "timeline", run.Timeline)
	}
	return out
}

func (s *Scheduler) fire(a action.ID, due, now time.Duration, repeat bool) {
	f := Firing{Action: a, Due: due, At: now, Repeat: repeat}
	if s.run != nil {
		f.RunID = s.run.ID
		f.Timeline = s.run.Timeline
	}
	s.logger.Debug("action fired", "timeline", f.Timeline, "action", a.String(), "late", f.Lateness())
	s.performer.Perform(a)
	s.observer.ActionFired(f)
}

func (s *Scheduler) end(reason EndReason) {
	run := *s.run
	s.run = nil
	s.logger.Info("timeline ended", "timeline", run.Timeline, "run_id", run.ID, "reason", string(reason))
	s.observer.TimelineEnded(run, reason)
}
