package audio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/tarm/serial"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

// Volume limits of the module.
const (
	VolumeMin     = 0
	VolumeMax     = 30
	VolumeDefault = 15
	VolumeStep    = 5
)

const (
	defaultAckTimeout = time.Second
	lineBuffer        = 16
	playModeSingle    = "3"
)

// Tracks are file paths on the module's storage.
type Tracks struct {
	Takeoff string
	FlyMore string
	Landing string
	Scene01 string
	Stop    string
}

// TracksFromConfig converts the tracks section of config.yaml.
func TracksFromConfig(cfg config.TracksConfig) Tracks {
	return Tracks(cfg)
}

// Options configures a Player.
type Options struct {
	AckTimeout    time.Duration
	DefaultVolume int
	Tracks        Tracks
}

// CommandObserver is told about every command sent to the module.
type CommandObserver interface {
	AudioCommand(command string, acked bool, latency time.Duration)
}

// Logger defines the logging interface used by the Player.
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

type noopObserver struct{}

func (noopObserver) AudioCommand(string, bool, time.Duration) {}

// Player sends commands to the module. Command methods are meant for the
// control loop and are not safe for concurrent use.
type Player struct {
	port   io.ReadWriter
	lines  chan string
	done   chan struct{}
	opts   Options
	volume int

	logger   Logger
	observer CommandObserver

	closeOnce sync.Once
}

// Open opens the serial port named in cfg and returns a Player reading it.
// Begin must be called before the first command.
func Open(cfg config.AudioConfig) (*Player, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Port, err)
	}
	return NewPlayer(port, Options{
		AckTimeout:    time.Duration(cfg.AckTimeout) * time.Millisecond,
		DefaultVolume: cfg.DefaultVolume,
		Tracks:        TracksFromConfig(cfg.Tracks),
	}), nil
}

// NewPlayer starts reading port and returns a player writing to it.
func NewPlayer(port io.ReadWriter, opts Options) *Player {
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = defaultAckTimeout
	}
	opts.DefaultVolume = clampVolume(opts.DefaultVolume)

	p := &Player{
		port:     port,
		lines:    make(chan string, lineBuffer),
		done:     make(chan struct{}),
		opts:     opts,
		volume:   VolumeDefault,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
	go p.readLoop()
	return p
}

// SetLogger sets the logger for the player.
func (p *Player) SetLogger(logger Logger) {
	p.logger = logger
}

// SetObserver sets the observer told about every command.
func (p *Player) SetObserver(o CommandObserver) {
	if o == nil {
		o = noopObserver{}
	}
	p.observer = o
}

// readLoop splits the port into lines until the port fails or closes.
func (p *Player) readLoop() {
	defer close(p.done)
	scanner := bufio.NewScanner(p.port)
	for scanner.Scan() {
		line := printable(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case p.lines <- line:
		default:
			// Nobody is waiting; the next command drains the buffer anyway.
		}
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warn("audio port read stopped", "error", err)
	}
}

// Begin puts the module in single-play mode, stops playback and sets the
// default volume.
func (p *Player) Begin() {
	p.Command("PLAYMODE", playModeSingle)
	p.Stop()
	p.SetVolume(p.opts.DefaultVolume)
	p.logger.Info("audio player ready", "volume", p.volume)
}

// Command sends AT+NAME=VALUE and reports whether the module answered OK
// within the acknowledgement timeout. An empty name sends the bare "AT" probe.
func (p *Player) Command(name, value string) bool {
	p.drain()

	line := "AT"
	if name != "" {
		line = "AT+" + name + "=" + value
	}

	start := time.Now()
	if _, err := io.WriteString(p.port, line+"\r\n"); err != nil {
		p.logger.Warn("audio command write failed", "command", line, "error", err)
		p.observer.AudioCommand(line, false, 0)
		return false
	}

	acked := false
	reply := ""
	timer := time.NewTimer(p.opts.AckTimeout)
	defer timer.Stop()

	select {
	case reply = <-p.lines:
		acked = reply == "OK"
	case <-timer.C:
	case <-p.done:
	}

	latency := time.Since(start)
	if acked {
		p.logger.Debug("audio command acknowledged", "command", line, "latency", latency)
	} else {
		p.logger.Warn("audio command not acknowledged", "command", line, "reply", reply)
	}
	p.observer.AudioCommand(line, acked, latency)
	return acked
}

// Play plays a track once.
func (p *Player) Play(track string) bool {
	return p.Command("PLAYFILE", track)
}

// Stop ends playback by playing the stop track.
func (p *Player) Stop() bool {
	return p.Play(p.opts.Tracks.Stop)
}

// SetVolume clamps level to 0..30 and applies it. The stored volume only
// changes when the module acknowledges.
func (p *Player) SetVolume(level int) bool {
	level = clampVolume(level)
	if !p.Command("VOL", strconv.Itoa(level)) {
		return false
	}
	p.volume = level
	return true
}

// VolumeUp raises the volume by one step.
func (p *Player) VolumeUp() bool {
	return p.SetVolume(p.volume + VolumeStep)
}

// VolumeDown lowers the volume by one step.
func (p *Player) VolumeDown() bool {
	return p.SetVolume(p.volume - VolumeStep)
}

// Volume returns the last acknowledged volume.
func (p *Player) Volume() int {
	return p.volume
}

// Tracks returns the configured track paths.
func (p *Player) Tracks() Tracks {
	return p.opts.Tracks
}

// Close closes the port if it can be closed, which ends the read goroutine.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if c, ok := p.port.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (p *Player) drain() {
	for {
		select {
		case line := <-p.lines:
			p.logger.Debug("audio stale line discarded", "line", line)
		default:
			return
		}
	}
}

func clampVolume(level int) int {
	if level < VolumeMin {
		return VolumeMin
	}
	if level > VolumeMax {
		return VolumeMax
	}
	return level
}

func printable(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s))
}
