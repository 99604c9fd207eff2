package maestro

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

const servoTravel = 180

type servoChannel struct {
	channel      int
	minPulse     int
	maxPulse     int
	reverse      bool
	acceleration int
}

// target converts degrees to a quarter-microsecond target.
func (s servoChannel) target(degrees int) uint16 {
	if degrees < 0 {
		degrees = 0
	}
	if degrees > servoTravel {
		degrees = servoTravel
	}
	if s.reverse {
		degrees = servoTravel - degrees
	}
	us := s.minPulse + (s.maxPulse-s.minPulse)*degrees/servoTravel
	return uint16(us * 4)
}

// speed converts degrees per second to the Maestro unit of
// quarter-microseconds per 10 ms.
func (s servoChannel) speed(degPerSec int) uint16 {
	if degPerSec <= 0 {
		return 0
	}
	v := degPerSec * (s.maxPulse - s.minPulse) * 4 / servoTravel / 100
	if v < 1 {
		v = 1
	}
	return uint16(v)
}

type lightChannel struct {
	channel int
	off     int
	on      int
}

func (l lightChannel) target(level float64) uint16 {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return uint16(float64(l.off) + float64(l.on-l.off)*level)
}

// Logger defines the logging interface used by the Driver.
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

// Driver writes servo and light targets to a Maestro.
//
// Thread Safety:
//   - Writes are serialised; the driver may be shared between the vehicle
//     model and the light controller.
type Driver struct {
	port   io.ReadWriter
	device uint8
	servos map[vehicle.Axis]servoChannel
	lights map[lighting.Channel]lightChannel
	logger Logger
	mu     sync.Mutex
}

// Open opens the serial port named in cfg and returns a driver for it.
func Open(cfg config.MaestroConfig) (*Driver, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.Timeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Port, err)
	}
	d, err := New(port, cfg)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return d, nil
}

// New builds a driver over an already open port.
func New(port io.ReadWriter, cfg config.MaestroConfig) (*Driver, error) {
	servos, lights, err := channelMaps(cfg)
	if err != nil {
		return nil, err
	}
	return &Driver{
		port:   port,
		device: uint8(cfg.Device),
		servos: servos,
		lights: lights,
		logger: noopLogger{},
	}, nil
}

// channelMaps validates and resolves the servo and light mappings.
func channelMaps(cfg config.MaestroConfig) (map[vehicle.Axis]servoChannel, map[lighting.Channel]lightChannel, error) {
	servos := make(map[vehicle.Axis]servoChannel, len(cfg.Servos))
	for name, sc := range cfg.Servos {
		axis, ok := vehicle.ParseAxis(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAxis, name)
		}
		if sc.Channel < 0 || sc.Channel > maxChannel {
			return nil, nil, fmt.Errorf("%w: %s on %d", ErrInvalidChannel, name, sc.Channel)
		}
		servos[axis] = servoChannel{
			channel:      sc.Channel,
			minPulse:     sc.MinPulse,
			maxPulse:     sc.MaxPulse,
			reverse:      sc.Reverse,
			acceleration: sc.Acceleration,
		}
	}

	lights := make(map[lighting.Channel]lightChannel, len(cfg.Lights))
	for name, lc := range cfg.Lights {
		ch, ok := lighting.ParseChannel(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLight, name)
		}
		if lc.Channel < 0 || lc.Channel > maxChannel {
			return nil, nil, fmt.Errorf("%w: %s on %d", ErrInvalidChannel, name, lc.Channel)
		}
		lights[ch] = lightChannel{channel: lc.Channel, off: lc.OffTarget, on: lc.OnTarget}
	}
	return servos, lights, nil
}

// SetLogger sets the logger for the driver.
func (d *Driver) SetLogger(logger Logger) {
	d.logger = logger
}

// Init applies per-axis speed limits (degrees per second) and the configured
// accelerations.
func (d *Driver) Init(speeds map[vehicle.Axis]int) error {
	for _, axis := range vehicle.Axes {
		sc, ok := d.servos[axis]
		if !ok {
			continue
		}
		if err := d.write(frame(d.device, cmdSetSpeed, sc.channel, sc.speed(speeds[axis]))); err != nil {
			return fmt.Errorf("setting %s speed: %w", axis, err)
		}
		if err := d.write(frame(d.device, cmdSetAcceleration, sc.channel, uint16(sc.acceleration))); err != nil {
			return fmt.Errorf("setting %s acceleration: %w", axis, err)
		}
	}
	d.logger.Info("maestro initialised", "servos", len(d.servos), "lights", len(d.lights))
	return nil
}

// MoveTo implements vehicle.Driver.
func (d *Driver) MoveTo(axis vehicle.Axis, position int) error {
	sc, ok := d.servos[axis]
	if !ok {
		return fmt.Errorf("%w: axis %s", ErrUnmapped, axis)
	}
	return d.write(frame(d.device, cmdSetTarget, sc.channel, sc.target(position)))
}

// SetLevel implements lighting.Output.
func (d *Driver) SetLevel(ch lighting.Channel, level float64) error {
	lc, ok := d.lights[ch]
	if !ok {
		return fmt.Errorf("%w: light %s", ErrUnmapped, ch)
	}
	return d.write(frame(d.device, cmdSetTarget, lc.channel, lc.target(level)))
}

// GoHome sends every channel to its home position.
func (d *Driver) GoHome() error {
	return d.write(frame(d.device, cmdGoHome, -1))
}

// Errors reads and clears the controller error register. A clean register
// returns nil.
func (d *Driver) Errors() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.port.Write(frame(d.device, cmdGetErrors, -1)); err != nil {
		return fmt.Errorf("requesting errors: %w", err)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(d.port, buf); err != nil {
		return fmt.Errorf("reading errors: %w", err)
	}
	val := uint16(buf[0]) | uint16(buf[1])<<8
	if val == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrController, describeErrors(val))
}

// Close closes the port if it can be closed.
func (d *Driver) Close() error {
	if c, ok := d.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Driver) write(b []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.port.Write(b)
	return err
}

// SpeedsFromConfig returns the per-axis speed limits from calibration.
func SpeedsFromConfig(cfg config.CalibrationConfig) map[vehicle.Axis]int {
	return map[vehicle.Axis]int{
		vehicle.ThrustLeft:  cfg.Thrust.Speed,
		vehicle.ThrustRight: cfg.Thrust.Speed,
		vehicle.Tilt:        cfg.Tilt.Speed,
		vehicle.Turn:        cfg.Turn.Speed,
	}
}
