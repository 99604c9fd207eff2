package mqtt

import (
	"context"
	"fmt"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

// Logger is the subset of logging.Logger the client uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Client is the vehicle's outbound telemetry link. It only publishes:
// commands reach the vehicle through local input devices alone.
type Client struct {
	paho    pahomqtt.Client
	qos     byte
	vehicle string
	logger  Logger

	up         atomic.Bool
	seen       atomic.Bool // set by the first connect handler
	reconnects atomic.Uint64
}

// Connect dials the broker and announces the vehicle online. After the
// first connection paho reconnects by itself and the vehicle is announced
// again each time. logger may be nil.
func Connect(cfg config.MQTTConfig, vehicleID string, logger Logger) (*Client, error) {
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQoS, cfg.QoS)
	}
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Client{qos: byte(cfg.QoS), vehicle: vehicleID, logger: logger}

	opts := clientOptions(cfg, vehicleID).
		SetOnConnectHandler(func(pahomqtt.Client) { c.linkUp() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.linkDown(err) }).
		SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
			c.logger.Info("MQTT reconnecting", "broker", cfg.Broker.Host)
		})
	c.paho = pahomqtt.NewClient(opts)

	token := c.paho.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// With connect retry on, paho keeps dialling until told to stop.
		c.paho.Disconnect(0)
		return nil, fmt.Errorf("%w: no answer from %s:%d within %v",
			ErrUnreachable, cfg.Broker.Host, cfg.Broker.Port, connectTimeout)
	}
	if err := token.Error(); err != nil {
		c.paho.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	// The connect handler runs on its own goroutine and may not have run yet.
	c.up.Store(true)
	return c, nil
}

func (c *Client) linkUp() {
	c.up.Store(true)
	if c.seen.Swap(true) {
		c.logger.Info("MQTT reconnected", "reconnects", c.reconnects.Add(1))
	}
	c.paho.Publish(Topics{}.SystemStatus(), 1, true, announce(c.vehicle, presenceOnline, ""))
}

func (c *Client) linkDown(err error) {
	c.up.Store(false)
	c.logger.Warn("MQTT connection lost", "error", err)
}

// Connected reports the last known link state.
func (c *Client) Connected() bool {
	return c.up.Load() && c.paho != nil && c.paho.IsConnectionOpen()
}

// HealthCheck fails while the link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	return nil
}

// Close announces a clean shutdown and disconnects. It is safe on a nil
// or never-connected client.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}
	if c.Connected() {
		token := c.paho.Publish(Topics{}.SystemStatus(), 1, true,
			announce(c.vehicle, presenceOffline, "shutdown"))
		token.WaitTimeout(publishTimeout)
	}
	c.up.Store(false)
	c.paho.Disconnect(quiesceMillis)
	return nil
}
