package lighting

import "time"

type channelState struct {
	pattern Pattern
	since   time.Duration
	pending bool    // requested, not yet rendered
	level   float64 // last rendered level
	written float64 // last level sent to the output; -1 forces a write
}

// Controller owns the light channels. It is not safe for concurrent use;
// the control loop is its only caller.
type Controller struct {
	channels [channelCount]channelState
	out      Output
	logger   Logger
}

// New creates a controller with every channel off. The first Update writes
// the off level to every output.
func New(out Output) *Controller {
	c := &Controller{out: out, logger: noopLogger{}}
	for i := range c.channels {
		c.channels[i].written = -1
	}
	return c
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// SetState requests a pattern. It takes effect at the next Update.
func (c *Controller) SetState(ch Channel, p Pattern) {
	if ch >= channelCount {
		c.logger.Warn("unknown light channel", "channel", int(ch))
		return
	}
	lit := c.IsOn(ch)
	switch {
	case p == FadeOn && lit, p == Breathe && lit:
		c.logger.Debug("light already on, pattern ignored", "channel", ch.String(), "pattern", p.String())
		return
	case p == FadeOff && !lit:
		c.logger.Debug("light already off, pattern ignored", "channel", ch.String(), "pattern", p.String())
		return
	}

	st := &c.channels[ch]
	st.pattern = p
	st.pending = true
	c.logger.Debug("light pattern set", "channel", ch.String(), "pattern", p.String())
}

// IsOn reports whether a channel is lit. A running pattern counts as lit
// even between flashes and before its first render; a fade-off counts
// until it reaches dark.
func (c *Controller) IsOn(ch Channel) bool {
	if ch >= channelCount {
		return false
	}
	st := c.channels[ch]
	switch st.pattern {
	case Off:
		return false
	case FadeOff:
		return st.level > 0
	default:
		return true
	}
}

// Pattern returns the current pattern of a channel.
func (c *Controller) Pattern(ch Channel) Pattern {
	if ch >= channelCount {
		return Off
	}
	return c.channels[ch].pattern
}

// Update renders every channel at now and writes changed levels.
func (c *Controller) Update(now time.Duration) {
	for i := range c.channels {
		ch := Channel(i)
		st := &c.channels[i]
		if st.pending {
			st.since = now
			st.pending = false
		}

		level, done := render(st.pattern, now-st.since, blink(ch))
		if done {
			st.pattern = settle(st.pattern)
			st.since = now
		}
		st.level = level

		if level == st.written {
			continue
		}
		if err := c.out.SetLevel(ch, level); err != nil {
			c.logger.Warn("light output failed", "channel", ch.String(), "error", err)
			continue
		}
		st.written = level
	}
}

// States returns a copy of every channel in channel order.
func (c *Controller) States() []ChannelState {
	out := make([]ChannelState, 0, channelCount)
	for i, st := range c.channels {
		out = append(out, ChannelState{
			Channel: Channel(i).String(),
			Pattern: st.pattern,
			Level:   st.level,
		})
	}
	return out
}

// render returns the level of pattern p at elapsed time t, and whether the
// pattern has run its course.
func render(p Pattern, t, blinkTime time.Duration) (float64, bool) {
	switch p {
	case On:
		return 1, false
	case Flash:
		return square(t, blinkTime), false
	case Burst:
		if t >= BurstCycles*2*blinkTime {
			return 0, true
		}
		return square(t, blinkTime), false
	case FadeOn:
		if t >= FadeDuration {
			return 1, true
		}
		return ramp(t, FadeDuration), false
	case FadeOff:
		if t >= FadeDuration {
			return 0, true
		}
		return 1 - ramp(t, FadeDuration), false
	case Breathe:
		switch {
		case t >= breatheDuration:
			return 0, true
		case t < FadeDuration:
			return ramp(t, FadeDuration), false
		case t < FadeDuration+BreatheHold:
			return 1, false
		default:
			return 1 - ramp(t-FadeDuration-BreatheHold, FadeDuration), false
		}
	default:
		return 0, false
	}
}

// settle is the steady pattern a finite pattern ends in.
func settle(p Pattern) Pattern {
	if p == FadeOn {
		return On
	}
	return Off
}

func square(t, blinkTime time.Duration) float64 {
	if blinkTime <= 0 || (t/blinkTime)%2 == 0 {
		return 1
	}
	return 0
}

func ramp(t, total time.Duration) float64 {
	if t <= 0 {
		return 0
	}
	return float64(t) / float64(total)
}
