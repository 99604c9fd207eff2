package vehicle

import (
	"errors"
	"testing"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

type move struct {
	axis     Axis
	position int
}

type mockDriver struct {
	moves []move
	err   error
}

func (d *mockDriver) MoveTo(axis Axis, position int) error {
	d.moves = append(d.moves, move{axis, position})
	return d.err
}

func (d *mockDriver) reset() { d.moves = nil }

type warnCounter struct {
	noopLogger
	warns int
}

func (w *warnCounter) Warn(string, ...any) { w.warns++ }

func testCalibration() Calibration {
	return Calibration{
		Thrust:       Range{Min: 40, Max: 170, Center: 110},
		Tilt:         Range{Min: 80, Max: 180, Center: 120},
		Turn:         Range{Min: 35, Max: 135, Center: 85},
		ThrustOffset: 25,
		FullOffset:   50,
	}
}

func newTestModel() (*Model, *mockDriver) {
	d := &mockDriver{}
	return New(testCalibration(), d), d
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestNew_StartsCentred(t *testing.T) {
	m, d := newTestModel()

	want := Positions{ThrustLeft: 110, ThrustRight: 110, Tilt: 120, Turn: 85}
	if got := m.Positions(); got != want {
		t.Errorf("Positions() = %+v, want %+v", got, want)
	}
	if len(d.moves) != 0 {
		t.Errorf("New drove %d moves, want 0", len(d.moves))
	}
}

func TestMoveAxisTo_Clamps(t *testing.T) {
	tests := []struct {
		name   string
		axis   Axis
		target int
		want   int
	}{
		{name: "tilt above max", axis: Tilt, target: 200, want: 180},
		{name: "tilt below min", axis: Tilt, target: 10, want: 80},
		{name: "turn below min", axis: Turn, target: 0, want: 35},
		{name: "turn above max", axis: Turn, target: 999, want: 135},
		{name: "thrust below min", axis: ThrustLeft, target: -5, want: 40},
		{name: "in range untouched", axis: Turn, target: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d := newTestModel()
			m.MoveAxisTo(tt.axis, tt.target)

			if got := m.Position(tt.axis); got != tt.want {
				t.Errorf("Position(%v) = %d, want %d", tt.axis, got, tt.want)
			}
			last := d.moves[len(d.moves)-1]
			if last.axis != tt.axis || last.position != tt.want {
				t.Errorf("last driver move = %+v, want {%v %d}", last, tt.axis, tt.want)
			}
			for _, mv := range d.moves {
				r := testCalibration().Range(mv.axis)
				if mv.position < r.Min || mv.position > r.Max {
					t.Errorf("driver saw out-of-range move %+v", mv)
				}
			}
		})
	}
}

func TestMoveAxisTo_ThrustCoupling(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m *Model)
		axis      Axis
		target    int
		wantLeft  int
		wantRight int
	}{
		{name: "tilt up thrusts forward", axis: Tilt, target: 180, wantLeft: 135, wantRight: 135},
		{name: "tilt down thrusts back", axis: Tilt, target: 80, wantLeft: 85, wantRight: 85},
		{name: "tilt unchanged hovers", axis: Tilt, target: 120, wantLeft: 110, wantRight: 110},
		{
			name:     "tilt held at max gives full thrust",
			setup:    func(m *Model) { m.MoveAxisTo(Tilt, 180) },
			axis:     Tilt,
			target:   250,
			wantLeft: 160, wantRight: 160,
		},
		{name: "turn up thrusts left", axis: Turn, target: 135, wantLeft: 85, wantRight: 135},
		{name: "turn down thrusts right", axis: Turn, target: 35, wantLeft: 135, wantRight: 85},
		{name: "turn unchanged hovers", axis: Turn, target: 85, wantLeft: 110, wantRight: 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d := newTestModel()
			if tt.setup != nil {
				tt.setup(m)
			}
			d.reset()

			m.MoveAxisTo(tt.axis, tt.target)

			if got := m.Position(ThrustLeft); got != tt.wantLeft {
				t.Errorf("ThrustLeft = %d, want %d", got, tt.wantLeft)
			}
			if got := m.Position(ThrustRight); got != tt.wantRight {
				t.Errorf("ThrustRight = %d, want %d", got, tt.wantRight)
			}
			// Thrusters are driven before the axis itself.
			if len(d.moves) != 3 || d.moves[2].axis != tt.axis {
				t.Errorf("driver moves = %+v, want thrust pair then %v", d.moves, tt.axis)
			}
		})
	}
}

func TestMoveAxisTo_ThrustAxisNotCoupled(t *testing.T) {
	m, d := newTestModel()
	m.MoveAxisTo(ThrustLeft, 150)

	if len(d.moves) != 1 {
		t.Fatalf("driver moves = %+v, want exactly one", d.moves)
	}
	if m.Position(ThrustRight) != 110 {
		t.Errorf("ThrustRight changed to %d", m.Position(ThrustRight))
	}
}

func TestThrust_ClampsIntent(t *testing.T) {
	cal := testCalibration()
	cal.FullOffset = 100
	m := New(cal, &mockDriver{})

	m.Thrust(Full)
	if got := m.Position(ThrustLeft); got != 170 {
		t.Errorf("ThrustLeft = %d, want clamp to 170", got)
	}
}

func TestNeutral(t *testing.T) {
	m, _ := newTestModel()
	m.MoveAxisTo(Tilt, 180)
	m.MoveAxisTo(Turn, 35)

	m.Neutral()

	want := Positions{ThrustLeft: 110, ThrustRight: 110, Tilt: 120, Turn: 85}
	if got := m.Positions(); got != want {
		t.Errorf("Positions() = %+v, want %+v", got, want)
	}
}

func TestDriverErrorIsLoggedNotFatal(t *testing.T) {
	m, d := newTestModel()
	d.err = errors.New("serial gone")
	logger := &warnCounter{}
	m.SetLogger(logger)

	m.MoveAxisTo(Turn, 100)

	if m.Position(Turn) != 100 {
		t.Errorf("Position(Turn) = %d, want 100 despite driver error", m.Position(Turn))
	}
	if logger.warns != 3 {
		t.Errorf("warns = %d, want 3", logger.warns)
	}
}

type recordingObserver struct{ moves []move }

func (o *recordingObserver) AxisMoved(axis Axis, position int) {
	o.moves = append(o.moves, move{axis, position})
}

func TestObserverSeesEveryMove(t *testing.T) {
	m, d := newTestModel()
	obs := &recordingObserver{}
	m.SetObserver(obs)

	m.MoveAxisTo(Tilt, 90)

	if len(obs.moves) != len(d.moves) {
		t.Errorf("observer saw %d moves, driver saw %d", len(obs.moves), len(d.moves))
	}
}

func TestParseAxis(t *testing.T) {
	for _, axis := range Axes {
		got, ok := ParseAxis(axis.String())
		if !ok || got != axis {
			t.Errorf("ParseAxis(%q) = %v, %v", axis, got, ok)
		}
	}
	if _, ok := ParseAxis("yaw"); ok {
		t.Error("ParseAxis(yaw) ok = true")
	}
}
