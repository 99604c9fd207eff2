package timeline

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/aerial-hk/internal/action"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

const ms = time.Millisecond

type fired struct {
	action action.ID
	at     time.Duration
}

type recorder struct {
	fired []fired
	now   time.Duration
	hook  func(id action.ID)
}

func (r *recorder) Perform(id action.ID) {
	r.fired = append(r.fired, fired{id, r.now})
	if r.hook != nil {
		r.hook(id)
	}
}

func (r *recorder) actions() []action.ID {
	out := make([]action.ID, len(r.fired))
	for i, f := range r.fired {
		out[i] = f.action
	}
	return out
}

func (r *recorder) timesOf(id action.ID) []time.Duration {
	var out []time.Duration
	for _, f := range r.fired {
		if f.action == id {
			out = append(out, f.at)
		}
	}
	return out
}

type lifecycle struct {
	started []Run
	firings []Firing
	ended   []EndReason
}

func (l *lifecycle) TimelineStarted(run Run)              { l.started = append(l.started, run) }
func (l *lifecycle) ActionFired(f Firing)                 { l.firings = append(l.firings, f) }
func (l *lifecycle) TimelineEnded(_ Run, reason EndReason) { l.ended = append(l.ended, reason) }

// tickUntil advances from..to inclusive in steps, keeping rec.now in sync.
func tickUntil(s *Scheduler, rec *recorder, from, to, step time.Duration) {
	for now := from; now <= to; now += step {
		rec.now = now
		s.Tick(now)
	}
}

func newTestScheduler(capacity int) (*Scheduler, *recorder) {
	rec := &recorder{}
	return NewScheduler(Options{Capacity: capacity, StepInterval: 10 * ms}, rec), rec
}

func powerOn() *Timeline {
	return &Timeline{Name: "power-on", Events: []Event{
		{Action: action.TailLightsOn, Offset: 0},
		{Action: action.PlayTakeoff, Offset: 500 * ms},
		{Action: action.LandingLightsOnOff, Offset: 550 * ms},
		{Action: action.SearchLightsOn, Offset: 5500 * ms},
		{Action: action.PlayFlyMore, Offset: 15000 * ms, Repeat: 30000 * ms},
		{Action: action.None},
	}}
}

func equalActions(a, b []action.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ─── Timeline ───────────────────────────────────────────────────────────────

func TestTimeline_EntriesStopAtSentinel(t *testing.T) {
	tl := &Timeline{Events: []Event{
		{Action: action.TailLightsOn},
		{Action: action.None},
		{Action: action.TailLightsOff},
	}}
	if n := len(tl.Entries()); n != 1 {
		t.Errorf("Entries() len = %d, want 1", n)
	}
	if got := powerOn().SlotsNeeded(); got != 6 {
		t.Errorf("SlotsNeeded() = %d, want 6", got)
	}
	var nilTL *Timeline
	if nilTL.Entries() != nil {
		t.Error("nil timeline has entries")
	}
}

// ─── Timer mode ─────────────────────────────────────────────────────────────

func TestStart_PowerOnScenario(t *testing.T) {
	s, rec := newTestScheduler(16)
	s.Start(powerOn(), 0)

	tickUntil(s, rec, 0, 16000*ms, 5*ms)

	want := []fired{
		{action.TailLightsOn, 0},
		{action.PlayTakeoff, 500 * ms},
		{action.LandingLightsOnOff, 550 * ms},
		{action.SearchLightsOn, 5500 * ms},
		{action.PlayFlyMore, 15000 * ms},
	}
	if len(rec.fired) != len(want) {
		t.Fatalf("fired %v, want %v", rec.fired, want)
	}
	for i := range want {
		if rec.fired[i] != want[i] {
			t.Errorf("fired[%d] = %+v, want %+v", i, rec.fired[i], want[i])
		}
	}
}

func TestRepeat_FirstFiringDelayedToOffset(t *testing.T) {
	s, rec := newTestScheduler(16)
	s.Start(powerOn(), 0)

	tickUntil(s, rec, 0, 80000*ms, 5*ms)

	got := rec.timesOf(action.PlayFlyMore)
	want := []time.Duration{15000 * ms, 45000 * ms, 75000 * ms}
	if len(got) != len(want) {
		t.Fatalf("play-fly-more fired at %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("firing %d at %v, want %v", i, got[i], want[i])
		}
	}
	if s.State().Active == "" {
		t.Error("repeating timeline should stay active")
	}
}

func TestRepeat_AtOffsetZeroNeverDoubleFires(t *testing.T) {
	s, rec := newTestScheduler(4)
	s.Start(&Timeline{Name: "beat", Events: []Event{
		{Action: action.RedBackFlash, Offset: 0, Repeat: 100 * ms},
	}}, 0)

	tickUntil(s, rec, 0, 250*ms, ms)

	got := rec.timesOf(action.RedBackFlash)
	want := []time.Duration{0, 100 * ms, 200 * ms}
	if len(got) != len(want) {
		t.Fatalf("fired at %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("firing %d at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRepeat_LateTickSkipsMissedPeriods(t *testing.T) {
	s, rec := newTestScheduler(4)
	s.Start(&Timeline{Name: "beat", Events: []Event{
		{Action: action.RedBackFlash, Offset: 0, Repeat: 100 * ms},
	}}, 0)

	rec.now = 0
	s.Tick(0)
	rec.now = 350 * ms
	s.Tick(350 * ms)
	rec.now = 399 * ms
	s.Tick(399 * ms)
	rec.now = 400 * ms
	s.Tick(400 * ms)

	got := rec.timesOf(action.RedBackFlash)
	want := []time.Duration{0, 350 * ms, 400 * ms}
	if len(got) != len(want) {
		t.Fatalf("fired at %v, want %v", got, want)
	}
}

func TestTick_SameOffsetFiresInAuthoringOrder(t *testing.T) {
	tl := &Timeline{Name: "ties", Events: []Event{
		{Action: action.TailLightsOn, Offset: 0},
		{Action: action.PlayScene01, Offset: 0},
		{Action: action.SearchLightsOn, Offset: 13000 * ms},
		{Action: action.TiltBackward, Offset: 13000 * ms},
		{Action: action.BlueFrontFlash, Offset: 13000 * ms},
	}}

	for _, capacity := range []int{16, 2} {
		s, rec := newTestScheduler(capacity)
		s.Start(tl, 0)
		tickUntil(s, rec, 0, 14000*ms, 10*ms)

		want := []action.ID{action.TailLightsOn, action.PlayScene01, action.SearchLightsOn, action.TiltBackward, action.BlueFrontFlash}
		if !equalActions(rec.actions(), want) {
			t.Errorf("capacity %d: fired %v, want %v", capacity, rec.actions(), want)
		}
	}
}

func TestTick_RepeatTiesWithLaterEntryInAuthoringOrder(t *testing.T) {
	tl := &Timeline{Name: "repeat-tie", Events: []Event{
		{Action: action.TailLightsOn, Offset: 0, Repeat: 100 * ms},
		{Action: action.SearchLightsOn, Offset: 100 * ms},
		{Action: action.TurnLeft, Offset: 150 * ms},
		{Action: action.TurnRight, Offset: 200 * ms},
	}}

	for _, capacity := range []int{16, 4} {
		s, rec := newTestScheduler(capacity)
		run := s.Start(tl, 0)
		if capacity == 4 && run.Mode != ModeStepped {
			t.Fatalf("capacity 4: Mode = %v, want stepped", run.Mode)
		}
		tickUntil(s, rec, 0, 100*ms, 10*ms)

		want := []action.ID{action.TailLightsOn, action.TailLightsOn, action.SearchLightsOn}
		if !equalActions(rec.actions(), want) {
			t.Errorf("capacity %d: fired %v, want %v", capacity, rec.actions(), want)
		}
	}
}

func TestStepped_LateTickFiresEntryThenItsRepeat(t *testing.T) {
	s, rec := newTestScheduler(2)
	s.Start(&Timeline{Name: "late", Events: []Event{
		{Action: action.BlueFrontFlash, Offset: 50 * ms, Repeat: 100 * ms},
		{Action: action.RedBackFlash, Offset: 160 * ms},
		{Action: action.TailLightsOn, Offset: 500 * ms},
	}}, 0)

	rec.now = 0
	s.Tick(0)
	rec.now = 170 * ms
	s.Tick(170 * ms)

	want := []action.ID{action.BlueFrontFlash, action.BlueFrontFlash, action.RedBackFlash}
	if !equalActions(rec.actions(), want) {
		t.Errorf("fired %v, want %v", rec.actions(), want)
	}
}

func TestTick_CoarseTickFiresBothInAuthoringOrder(t *testing.T) {
	s, rec := newTestScheduler(8)
	s.Start(&Timeline{Name: "close", Events: []Event{
		{Action: action.BlueFrontFlash, Offset: 9200 * ms},
		{Action: action.RedBackFlash, Offset: 9203 * ms},
	}}, 0)

	rec.now = 9205 * ms
	s.Tick(9205 * ms)

	want := []action.ID{action.BlueFrontFlash, action.RedBackFlash}
	if !equalActions(rec.actions(), want) {
		t.Errorf("fired %v, want %v", rec.actions(), want)
	}
}

// ─── Preemption ─────────────────────────────────────────────────────────────

func TestStart_PreemptsEverythingPending(t *testing.T) {
	s, rec := newTestScheduler(16)
	s.Start(powerOn(), 0)
	tickUntil(s, rec, 0, 600*ms, 5*ms)

	powerOff := &Timeline{Name: "power-off", Events: []Event{
		{Action: action.PlayLanding, Offset: 0},
		{Action: action.TailLightsOff, Offset: 10000 * ms},
	}}
	s.Start(powerOff, 600*ms)
	before := len(rec.fired)
	tickUntil(s, rec, 600*ms, 100000*ms, 5*ms)

	for _, f := range rec.fired[before:] {
		if f.action != action.PlayLanding && f.action != action.TailLightsOff {
			t.Errorf("preempted action %v fired at %v", f.action, f.at)
		}
	}
	if got := rec.timesOf(action.TailLightsOff); len(got) != 1 || got[0] != 10600*ms {
		t.Errorf("tail-lights-off fired at %v, want [10.6s]", got)
	}
}

func TestCancelAll_DuringTickStopsSiblings(t *testing.T) {
	s, rec := newTestScheduler(16)
	rec.hook = func(id action.ID) {
		if id == action.PlayTakeoff {
			s.CancelAll()
		}
	}
	s.Start(&Timeline{Name: "t", Events: []Event{
		{Action: action.PlayTakeoff, Offset: 100 * ms},
		{Action: action.SearchLightsOn, Offset: 100 * ms},
		{Action: action.TailLightsOn, Offset: 200 * ms},
	}}, 0)

	tickUntil(s, rec, 0, time.Second, 50*ms)

	if !equalActions(rec.actions(), []action.ID{action.PlayTakeoff}) {
		t.Errorf("fired %v, want only play-takeoff", rec.actions())
	}
	if s.State().Pending != 0 || s.State().Active != "" {
		t.Errorf("State() after CancelAll = %+v", s.State())
	}
}

func TestStart_RestartSameTimelineBeginsAtZero(t *testing.T) {
	s, rec := newTestScheduler(16)
	s.Start(powerOn(), 0)
	tickUntil(s, rec, 0, 400*ms, 5*ms)
	s.Start(powerOn(), 400*ms)
	tickUntil(s, rec, 400*ms, 1000*ms, 5*ms)

	got := rec.timesOf(action.TailLightsOn)
	if len(got) != 2 || got[0] != 0 || got[1] != 400*ms {
		t.Errorf("tail-lights-on fired at %v, want [0 400ms]", got)
	}
	if got := rec.timesOf(action.PlayTakeoff); len(got) != 1 || got[0] != 900*ms {
		t.Errorf("play-takeoff fired at %v, want [900ms]", got)
	}
}

func TestLifecycleNotifications(t *testing.T) {
	s, rec := newTestScheduler(16)
	obs := &lifecycle{}
	s.SetObserver(obs)

	s.Start(&Timeline{Name: "short", Events: []Event{{Action: action.TailLightsOn, Offset: 10 * ms}}}, 0)
	tickUntil(s, rec, 0, 20*ms, 5*ms)
	s.Start(powerOn(), 20*ms)
	s.CancelAll()

	if len(obs.started) != 2 || obs.started[0].Mode != ModeTimers {
		t.Fatalf("started = %+v", obs.started)
	}
	if obs.started[0].ID == obs.started[1].ID {
		t.Error("run IDs repeat")
	}
	for _, run := range obs.started {
		if _, err := uuid.Parse(run.ID); err != nil {
			t.Errorf("run ID %q is not a full UUID: %v", run.ID, err)
		}
	}
	want := []EndReason{EndFinished, EndCancelled}
	if len(obs.ended) != 2 || obs.ended[0] != want[0] || obs.ended[1] != want[1] {
		t.Errorf("ended = %v, want %v", obs.ended, want)
	}
	if len(obs.firings) != 1 || obs.firings[0].Lateness() != 0 || obs.firings[0].Timeline != "short" {
		t.Errorf("firings = %+v", obs.firings)
	}
}

// ─── Stepped mode ───────────────────────────────────────────────────────────

func longTimeline(n int) *Timeline {
	tl := &Timeline{Name: "long"}
	for i := 0; i < n; i++ {
		a := action.TurnLeft
		if i%2 == 1 {
			a = action.TurnRight
		}
		tl.Events = append(tl.Events, Event{Action: a, Offset: time.Duration(i*100) * ms})
	}
	tl.Events = append(tl.Events, Event{Action: action.None})
	return tl
}

func TestStepped_FiresEveryEntryOnceInOrderThenHalts(t *testing.T) {
	s, rec := newTestScheduler(4)
	obs := &lifecycle{}
	s.SetObserver(obs)

	run := s.Start(longTimeline(30), 0)
	if run.Mode != ModeStepped {
		t.Fatalf("Mode = %v, want stepped", run.Mode)
	}

	tickUntil(s, rec, 0, 2950*ms, 5*ms)
	if len(rec.fired) != 30 {
		t.Fatalf("fired %d entries by 2.95s, want 30", len(rec.fired))
	}
	for i, f := range rec.fired {
		if want := time.Duration(i*100) * ms; f.at < want || f.at > want+10*ms {
			t.Errorf("entry %d fired at %v, want within a step of %v", i, f.at, want)
		}
	}

	if st := s.State(); st.Pending != 0 {
		t.Errorf("Pending = %d after sentinel, want 0 (driver cancelled)", st.Pending)
	}
	if s.State().Active != "" {
		t.Error("stepped run still active after sentinel")
	}
	if len(obs.ended) != 1 || obs.ended[0] != EndFinished {
		t.Errorf("ended = %v, want [finished]", obs.ended)
	}

	tickUntil(s, rec, 2950*ms, 5000*ms, 5*ms)
	if len(rec.fired) != 30 {
		t.Errorf("fired %d after halt, want 30", len(rec.fired))
	}
}

func TestStepped_RepeatEntriesUseSpareSlots(t *testing.T) {
	tl := longTimeline(4)
	tl.Events[4] = Event{Action: action.RedBackFlash, Offset: 300 * ms, Repeat: 200 * ms}

	s, rec := newTestScheduler(3)
	if run := s.Start(tl, 0); run.Mode != ModeStepped {
		t.Fatalf("Mode = %v, want stepped", run.Mode)
	}
	tickUntil(s, rec, 0, 700*ms, 5*ms)

	got := rec.timesOf(action.RedBackFlash)
	want := []time.Duration{300 * ms, 500 * ms, 700 * ms}
	if len(got) != len(want) {
		t.Fatalf("red-back-flash fired at %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("firing %d at %v, want %v", i, got[i], want[i])
		}
	}
	if st := s.State(); st.Pending != 1 || st.Active == "" {
		t.Errorf("State() = %+v, want only the repeat left", st)
	}
}

func TestStepped_TableFullDropsRepeat(t *testing.T) {
	s, rec := newTestScheduler(2)
	s.Start(&Timeline{Name: "crowded", Events: []Event{
		{Action: action.BlueFrontFlash, Offset: 0, Repeat: 100 * ms},
		{Action: action.RedBackFlash, Offset: 0, Repeat: 100 * ms},
		{Action: action.TailLightsOn, Offset: 50 * ms},
	}}, 0)

	tickUntil(s, rec, 0, 250*ms, 5*ms)

	if got := rec.timesOf(action.BlueFrontFlash); len(got) != 3 {
		t.Errorf("blue-front-flash fired at %v, want 0, 100ms, 200ms", got)
	}
	if got := rec.timesOf(action.RedBackFlash); len(got) != 1 || got[0] != 0 {
		t.Errorf("red-back-flash fired at %v, want once at 0", got)
	}
	if got := rec.timesOf(action.TailLightsOn); len(got) != 1 || got[0] != 50*ms {
		t.Errorf("tail-lights-on fired at %v, want [50ms]", got)
	}
}

func TestStepped_PreemptedByStart(t *testing.T) {
	s, rec := newTestScheduler(4)
	s.Start(longTimeline(30), 0)
	tickUntil(s, rec, 0, 1000*ms, 5*ms)

	s.Start(&Timeline{Name: "stop", Events: []Event{{Action: action.StopAudio}}}, 1000*ms)
	before := len(rec.fired)
	tickUntil(s, rec, 1000*ms, 5000*ms, 5*ms)

	if !equalActions(rec.actions()[before:], []action.ID{action.StopAudio}) {
		t.Errorf("after preemption fired %v, want only stop-audio", rec.actions()[before:])
	}
}

func TestState(t *testing.T) {
	s, rec := newTestScheduler(4)
	s.Start(longTimeline(10), 100*ms)
	tickUntil(s, rec, 100*ms, 350*ms, 5*ms)

	st := s.State()
	if st.Active != "long" || st.Mode != ModeStepped || st.StartClock != 100*ms {
		t.Errorf("State() = %+v", st)
	}
	if st.Cursor != 3 {
		t.Errorf("Cursor = %d, want 3", st.Cursor)
	}
	if st.Capacity != 4 || st.Pending != 1 {
		t.Errorf("Capacity/Pending = %d/%d, want 4/1", st.Capacity, st.Pending)
	}

	s.CancelAll()
	if st := s.State(); st.Active != "" || st.Cursor != 0 || st.Pending != 0 {
		t.Errorf("State() after CancelAll = %+v", st)
	}
}
