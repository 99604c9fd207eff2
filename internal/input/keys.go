package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// readKeys pumps bytes from read into out. A zero-byte read is a poll
// timeout; io.EOF ends input cleanly.
func readKeys(ctx context.Context, read func([]byte) (int, error), out chan<- RawCode) error {
	buf := make([]byte, 16)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := read(buf)
		n = max(n, 0)
		for _, b := range buf[:n] {
			if !send(ctx, out, RawCode{Source: SourceKeyboard, Code: uint32(b), At: time.Now()}) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading keyboard: %w", err)
		}
	}
}
