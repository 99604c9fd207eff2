package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/aerial-hk/internal/audio"
	"github.com/nerrad567/aerial-hk/internal/choreography"
	"github.com/nerrad567/aerial-hk/internal/command"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/input"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/maestro"
	"github.com/nerrad567/aerial-hk/internal/timeline"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }

type fakeAudio struct {
	tracks audio.Tracks
	played []string
	volume int
	begun  bool
}

func (a *fakeAudio) Begin() { a.begun = true }

func (a *fakeAudio) Volume() int { return a.volume }

func (a *fakeAudio) Tracks() audio.Tracks { return a.tracks }

func (a *fakeAudio) Play(track string) bool {
	a.played = append(a.played, track)
	return true
}

func (a *fakeAudio) Stop() bool { return a.Play(a.tracks.Stop) }

func (a *fakeAudio) VolumeUp() bool {
	a.volume += audio.VolumeStep
	return true
}

func (a *fakeAudio) VolumeDown() bool {
	a.volume -= audio.VolumeStep
	return true
}

type recordingObserver struct {
	mu       sync.Mutex
	commands []string
	handled  []bool
	statuses int
}

func (o *recordingObserver) CommandHandled(_ input.RawCode, symbol string, handled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.commands = append(o.commands, symbol)
	o.handled = append(o.handled, handled)
}

func (o *recordingObserver) StatusChanged(Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses++
}

type harness struct {
	ctrl  *Controller
	clock *manualClock
	sim   *maestro.Simulator
	audio *fakeAudio
	lamps *lighting.Controller
	model *vehicle.Model
	in    chan input.RawCode
	obs   *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	h := &harness{
		clock: &manualClock{},
		sim:   maestro.NewSimulator(),
		audio: &fakeAudio{tracks: audio.TracksFromConfig(cfg.Audio.Tracks), volume: audio.VolumeDefault},
		in:    make(chan input.RawCode, 8),
		obs:   &recordingObserver{},
	}
	h.model = vehicle.New(vehicle.CalibrationFromConfig(cfg.Calibration), h.sim)
	h.lamps = lighting.New(h.sim)
	h.ctrl = New(Options{StatusInterval: 250 * time.Millisecond}, Deps{
		Model:   h.model,
		Lights:  h.lamps,
		Audio:   h.audio,
		Catalog: choreography.NewCatalog(),
		Clock:   h.clock,
		Input:   h.in,
	})
	h.ctrl.SetObserver(h.obs)
	h.ctrl.Start()
	return h
}

func (h *harness) key(b byte) {
	h.in <- input.RawCode{Source: input.SourceKeyboard, Code: uint32(b)}
}

// advance ticks every step until the clock reaches to.
func (h *harness) advance(to, step time.Duration) {
	for h.clock.now < to {
		h.clock.now += step
		if h.clock.now > to {
			h.clock.now = to
		}
		h.ctrl.Tick()
	}
}

// ─── Start ──────────────────────────────────────────────────────────────────

func TestStart_NeutralAndDark(t *testing.T) {
	h := newHarness(t)

	if !h.audio.begun {
		t.Error("audio not initialised")
	}
	for axis, want := range map[vehicle.Axis]int{
		vehicle.Tilt:        120,
		vehicle.Turn:        85,
		vehicle.ThrustLeft:  110,
		vehicle.ThrustRight: 110,
	} {
		if got, ok := h.sim.Axis(axis); !ok || got != want {
			t.Errorf("%s = %d (%v), want %d", axis, got, ok, want)
		}
	}
	for _, ch := range lighting.Channels {
		if got, ok := h.sim.Light(ch); !ok || got != 0 {
			t.Errorf("%s level = %v (%v), want 0", ch, got, ok)
		}
	}
	if h.obs.statuses != 1 {
		t.Errorf("statuses = %d, want 1", h.obs.statuses)
	}
}

// ─── Power On ───────────────────────────────────────────────────────────────

func TestPowerKey_RunsPowerOn(t *testing.T) {
	h := newHarness(t)

	h.key('*')
	h.ctrl.Tick()
	h.advance(16*time.Second, 10*time.Millisecond)

	tracks := h.audio.tracks
	want := []string{tracks.Takeoff, tracks.FlyMore}
	if len(h.audio.played) != len(want) {
		t.Fatalf("played = %v, want %v", h.audio.played, want)
	}
	for i := range want {
		if h.audio.played[i] != want[i] {
			t.Errorf("played[%d] = %q, want %q", i, h.audio.played[i], want[i])
		}
	}
	if !h.lamps.IsOn(lighting.Tail) {
		t.Error("tail lights not on")
	}
	if !h.lamps.IsOn(lighting.Search) {
		t.Error("search lights not on")
	}
	if got, _ := h.sim.Light(lighting.Tail); got != 1 {
		t.Errorf("tail level = %v, want 1", got)
	}

	snap := h.ctrl.Snapshot()
	if snap.Scheduler.Active != choreography.PowerOn {
		t.Errorf("scheduler = %+v, want power-on active", snap.Scheduler)
	}
	if len(h.obs.commands) != 1 || h.obs.commands[0] != command.Power.String() || !h.obs.handled[0] {
		t.Errorf("commands = %v handled = %v", h.obs.commands, h.obs.handled)
	}
}

func TestPowerKey_TogglesToPowerOff(t *testing.T) {
	h := newHarness(t)

	h.key('*')
	h.ctrl.Tick()
	h.advance(6*time.Second, 10*time.Millisecond)

	h.key('*')
	h.ctrl.Tick()
	if got := h.ctrl.Snapshot().Scheduler.Active; got != choreography.PowerOff {
		t.Fatalf("timeline = %q, want %q", got, choreography.PowerOff)
	}

	h.advance(17*time.Second, 10*time.Millisecond)
	if h.lamps.IsOn(lighting.Tail) {
		t.Error("tail lights still on after power-off")
	}
	if h.lamps.IsOn(lighting.Search) {
		t.Error("search lights still on after power-off")
	}
	if last := h.audio.played[len(h.audio.played)-1]; last != h.audio.tracks.Landing {
		t.Errorf("last track = %q, want landing", last)
	}
}

// ─── Input ──────────────────────────────────────────────────────────────────

func TestTick_OneCodePerTick(t *testing.T) {
	h := newHarness(t)

	h.key('<')
	h.key('>')
	h.ctrl.Tick()
	if len(h.obs.commands) != 1 {
		t.Fatalf("handled %d codes in one tick, want 1", len(h.obs.commands))
	}
	h.ctrl.Tick()
	if len(h.obs.commands) != 2 {
		t.Fatalf("handled %d codes after two ticks, want 2", len(h.obs.commands))
	}
}

func TestTick_InputTranslation(t *testing.T) {
	tests := []struct {
		name    string
		code    input.RawCode
		notify  bool
		handled bool
	}{
		{"keyboard level", input.RawCode{Source: input.SourceKeyboard, Code: '|'}, true, true},
		{"ir volume up", input.RawCode{Source: input.SourceIR, Code: 0x46}, true, true},
		{"ir repeat ignored", input.RawCode{Source: input.SourceIR, Code: command.NECRepeat}, false, false},
		{"unknown key", input.RawCode{Source: input.SourceKeyboard, Code: 'q'}, true, false},
		{"unbound digit", input.RawCode{Source: input.SourceKeyboard, Code: '7'}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.in <- tt.code
			h.ctrl.Tick()

			if got := len(h.obs.commands) == 1; got != tt.notify {
				t.Fatalf("notified = %v, want %v", got, tt.notify)
			}
			if tt.notify && h.obs.handled[0] != tt.handled {
				t.Errorf("handled = %v, want %v", h.obs.handled[0], tt.handled)
			}
		})
	}
}

func TestToggleKeys(t *testing.T) {
	h := newHarness(t)

	h.key('/')
	h.ctrl.Tick()
	if !h.lamps.IsOn(lighting.Search) {
		t.Fatal("search not on after first toggle")
	}
	h.key('/')
	h.ctrl.Tick()
	if h.lamps.IsOn(lighting.Search) {
		t.Fatal("search still on after second toggle")
	}
}

// ─── Reset ──────────────────────────────────────────────────────────────────

func TestDigit_ResetsThenPlaysCutScene(t *testing.T) {
	h := newHarness(t)

	h.key('=')
	h.key('V')
	h.ctrl.Tick()
	h.ctrl.Tick()
	if h.model.Position(vehicle.Tilt) == 120 {
		t.Fatal("tilt did not move")
	}

	h.key('1')
	h.clock.now += 10 * time.Millisecond
	h.ctrl.Tick()

	if h.lamps.IsOn(lighting.Weapon) {
		t.Error("weapon still lit after reset")
	}
	if got := h.model.Position(vehicle.Tilt); got != 120 {
		t.Errorf("tilt = %d, want 120", got)
	}
	if h.audio.played[0] != h.audio.tracks.Stop {
		t.Errorf("first track = %q, want stop", h.audio.played[0])
	}
	snap := h.ctrl.Snapshot()
	if snap.Scheduler.Active != choreography.CutScene01 {
		t.Errorf("timeline = %q, want %q", snap.Scheduler.Active, choreography.CutScene01)
	}
	if snap.Scheduler.Mode != timeline.ModeStepped {
		t.Errorf("mode = %q, want stepped", snap.Scheduler.Mode)
	}
}

func TestPlay_UnknownTimeline(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.Play("nope"); err == nil {
		t.Fatal("expected error for unknown timeline")
	}
}

// ─── Status ─────────────────────────────────────────────────────────────────

func TestStatus_RateLimited(t *testing.T) {
	h := newHarness(t)

	h.advance(time.Second, 5*time.Millisecond)
	// One from Start, then one per 250ms of clock.
	if h.obs.statuses != 5 {
		t.Errorf("statuses = %d, want 5", h.obs.statuses)
	}
	if h.ctrl.Snapshot().Ticks != 200 {
		t.Errorf("ticks = %d, want 200", h.ctrl.Snapshot().Ticks)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Play(choreography.PowerOn)
	h.advance(6*time.Second, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	snap := h.ctrl.Snapshot()
	if snap.Scheduler.Pending != 0 {
		t.Errorf("pending = %d after stop, want 0", snap.Scheduler.Pending)
	}
	if got, _ := h.sim.Light(lighting.Search); got != 0 {
		t.Errorf("search level = %v after stop, want 0", got)
	}
}
