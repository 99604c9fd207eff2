package mqtt

import "errors"

var (
	// ErrNotConnected means the broker link is down. The client keeps
	// reconnecting in the background.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrUnreachable means the first connection attempt failed.
	ErrUnreachable = errors.New("mqtt: broker unreachable")

	// ErrPublishFailed wraps a publish the broker did not acknowledge.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidQoS rejects a configured QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic rejects an empty topic.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
