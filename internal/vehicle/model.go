package vehicle

// Model tracks commanded axis positions and forwards moves to a Driver.
type Model struct {
	cal      Calibration
	pos      [axisCount]int
	driver   Driver
	observer Observer
	logger   Logger
}

// New creates a model with every axis at its centre. Nothing is sent to the
// driver until the first move; call Neutral to drive the hardware there.
func New(cal Calibration, driver Driver) *Model {
	m := &Model{
		cal:      cal,
		driver:   driver,
		observer: noopObserver{},
		logger:   noopLogger{},
	}
	for _, axis := range Axes {
		m.pos[axis] = cal.Range(axis).Center
	}
	return m
}

// SetLogger sets the logger for the model.
func (m *Model) SetLogger(logger Logger) {
	m.logger = logger
}

// SetObserver sets the observer told about every move.
func (m *Model) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	m.observer = o
}

// Calibration returns the model's calibration.
func (m *Model) Calibration() Calibration {
	return m.cal
}

// Position returns the last commanded position of axis.
func (m *Model) Position(axis Axis) int {
	return m.pos[axis]
}

// Positions returns a copy of every axis position.
func (m *Model) Positions() Positions {
	return Positions{
		ThrustLeft:  m.pos[ThrustLeft],
		ThrustRight: m.pos[ThrustRight],
		Tilt:        m.pos[Tilt],
		Turn:        m.pos[Turn],
	}
}

// MoveAxisTo clamps target into the axis range, issues the thrust intent
// coupled to the move, then records and drives the new position.
func (m *Model) MoveAxisTo(axis Axis, target int) {
	r := m.cal.Range(axis)
	target = r.Clamp(target)
	current := m.pos[axis]

	switch axis {
	case Tilt:
		switch {
		case target > current:
			m.Thrust(Forward)
		case target < current:
			m.Thrust(Back)
		case current == r.Max:
			m.Thrust(Full)
		default:
			m.Thrust(Hover)
		}
	case Turn:
		switch {
		case target > current:
			m.Thrust(Left)
		case target < current:
			m.Thrust(Right)
		default:
			m.Thrust(Hover)
		}
	}

	m.set(axis, target)
}

// Thrust sets both thrusters for intent.
func (m *Model) Thrust(intent Intent) {
	left, right := m.thrustFor(intent)
	m.set(ThrustLeft, left)
	m.set(ThrustRight, right)
}

// Neutral levels tilt, centres turn and hovers.
func (m *Model) Neutral() {
	m.MoveAxisTo(Tilt, m.cal.Tilt.Center)
	m.MoveAxisTo(Turn, m.cal.Turn.Center)
	m.Thrust(Hover)
}

func (m *Model) thrustFor(intent Intent) (left, right int) {
	c, o := m.cal.Thrust.Center, m.cal.ThrustOffset
	switch intent {
	case Forward:
		return c + o, c + o
	case Back:
		return c - o, c - o
	case Left:
		return c - o, c + o
	case Right:
		return c + o, c - o
	case Full:
		return c + m.cal.FullOffset, c + m.cal.FullOffset
	default:
		return c, c
	}
}

func (m *Model) set(axis Axis, position int) {
	position = m.cal.Range(axis).Clamp(position)
	m.pos[axis] = position
	if err := m.driver.MoveTo(axis, position); err != nil {
		m.logger.Warn("actuator move failed", "axis", axis.String(), "position", position, "error", err)
	}
	m.observer.AxisMoved(axis, position)
}
