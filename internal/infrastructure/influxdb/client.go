package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize = 100
	defaultFlush     = 10 * time.Second
)

// Client is the metrics sink of one vehicle. Points are batched by the
// library's non-blocking writer, so the telemetry worker never waits on
// the network.
type Client struct {
	influx  influxdb2.Client
	writer  api.WriteAPI
	vehicle string // "vehicle" tag on every point

	closed  atomic.Bool
	onError atomic.Pointer[func(error)]
}

// Connect pings the server and starts the batched writer. It returns
// ErrDisabled when cfg turns metrics off and ErrUnreachable when the ping
// fails.
func Connect(cfg config.InfluxDBConfig, vehicleID string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, influx); err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, cfg.URL, err)
	}

	c := &Client{
		influx:  influx,
		writer:  influx.WriteAPI(cfg.Org, cfg.Bucket),
		vehicle: vehicleID,
	}
	go c.forwardErrors()
	return c, nil
}

// writeOptions maps the batch settings from config.yaml, where the flush
// interval is in seconds, onto the client options, where it is in
// milliseconds.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := defaultFlush
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds())) // #nosec G115 -- positive by construction
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ready, err := influx.Ping(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return errors.New("server not ready")
	}
	return nil
}

// forwardErrors hands asynchronous write failures to the SetOnError
// callback. It ends when Close shuts the writer down.
func (c *Client) forwardErrors() {
	for err := range c.writer.Errors() {
		if fn := c.onError.Load(); fn != nil {
			(*fn)(err)
		}
	}
}

// SetOnError sets the callback for failed batch writes.
func (c *Client) SetOnError(fn func(error)) {
	c.onError.Store(&fn)
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.influx); err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	return nil
}

// Flush blocks until every buffered point has been sent. It does nothing
// after Close.
func (c *Client) Flush() {
	if c.closed.Load() {
		return
	}
	c.writer.Flush()
}

// Close flushes outstanding points and releases the client. It is safe on
// a nil client and when called twice.
func (c *Client) Close() error {
	if c == nil || c.closed.Swap(true) {
		return nil
	}
	c.writer.Flush()
	c.influx.Close()
	return nil
}

// live reports whether points are still accepted.
func (c *Client) live() bool {
	return !c.closed.Load()
}
