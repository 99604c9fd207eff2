package mqtt

import "fmt"

// Publish sends payload with the configured QoS and waits for the broker.
// It blocks for up to publishTimeout, so only the telemetry worker calls
// it, never the control loop.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %s: %d byte payload", ErrPublishFailed, topic, len(payload))
	case !c.Connected():
		return ErrNotConnected
	}

	token := c.paho.Publish(topic, c.qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: no ack within %v", ErrPublishFailed, topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// PublishEvent sends one observation to its event topic.
func (c *Client) PublishEvent(kind string, payload []byte) error {
	return c.Publish(Topics{}.Event(kind), payload, false)
}

// PublishRetained replaces the retained document on topic.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, true)
}
