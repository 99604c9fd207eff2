package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

// IRBridge reads NEC command codes from a serial infra-red receiver. The
// receiver prints one hex code per line, with or without a 0x prefix.
type IRBridge struct {
	port   io.ReadCloser
	logger Logger
	once   sync.Once
}

// OpenIR opens the receiver's serial port.
func OpenIR(cfg config.IRConfig) (*IRBridge, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Port, err)
	}
	return NewIRBridge(port), nil
}

// NewIRBridge reads codes from an open port.
func NewIRBridge(port io.ReadCloser) *IRBridge {
	return &IRBridge{port: port, logger: noopLogger{}}
}

// SetLogger sets the logger for the bridge.
func (b *IRBridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Run sends one code per line until ctx is cancelled or the port closes.
// Malformed lines are logged and skipped.
func (b *IRBridge) Run(ctx context.Context, out chan<- RawCode) error {
	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()

	b.logger.Info("IR input started")
	scanner := bufio.NewScanner(b.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		code, err := ParseCode(line)
		if err != nil {
			b.logger.Warn("IR line ignored", "line", line, "error", err)
			continue
		}
		if !send(ctx, out, RawCode{Source: SourceIR, Code: code, At: time.Now()}) {
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("reading IR receiver: %w", err)
	}
	return nil
}

// Close closes the port, which ends Run.
func (b *IRBridge) Close() error {
	var err error
	b.once.Do(func() { err = b.port.Close() })
	return err
}

// ParseCode parses a hex NEC code such as "0x45", "45" or "FFFFFFFF".
func ParseCode(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadCode, s)
	}
	return uint32(v), nil
}
