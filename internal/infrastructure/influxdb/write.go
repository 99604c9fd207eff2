package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the controller.
const (
	measurementFiring = "timeline_firing"
	measurementAxis   = "axis_position"
	measurementAudio  = "audio_command"
)

// WriteFiring records one scheduled action firing and how late it ran.
//
// Lateness is the gap between the action's due time and the tick that
// fired it; it is bounded below by zero and above by roughly one tick.
//
// Example:
//
//	client.WriteFiring("power-on", "play-fly-more", 3*time.Millisecond, time.Now())
func (c *Client) WriteFiring(timeline, action string, lateness time.Duration, at time.Time) {
	if !c.live() {
		return
	}
	c.writer.WritePoint(firingPoint(c.vehicle, timeline, action, lateness, at))
}

// WriteAxisPosition records an actuator's commanded position in degrees.
func (c *Client) WriteAxisPosition(axis string, position int, at time.Time) {
	if !c.live() {
		return
	}
	c.writer.WritePoint(axisPoint(c.vehicle, axis, position, at))
}

// WriteAudioCommand records one command sent to the audio player and whether it was acknowledged.
func (c *Client) WriteAudioCommand(command string, acked bool, latency time.Duration, at time.Time) {
	if !c.live() {
		return
	}
	c.writer.WritePoint(audioPoint(c.vehicle, command, acked, latency, at))
}

func firingPoint(vehicleID, timeline, action string, lateness time.Duration, at time.Time) *write.Point {
	if lateness < 0 {
		lateness = 0
	}
	return write.NewPoint(
		measurementFiring,
		map[string]string{
			"vehicle":  vehicleID,
			"timeline": timeline,
			"action":   action,
		},
		map[string]interface{}{
			"lateness_ms": float64(lateness) / float64(time.Millisecond),
		},
		at,
	)
}

func axisPoint(vehicleID, axis string, position int, at time.Time) *write.Point {
	return write.NewPoint(
		measurementAxis,
		map[string]string{
			"vehicle": vehicleID,
			"axis":    axis,
		},
		map[string]interface{}{
			"degrees": position,
		},
		at,
	)
}

func audioPoint(vehicleID, command string, acked bool, latency time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		measurementAudio,
		map[string]string{
			"vehicle": vehicleID,
			"command": command,
		},
		map[string]interface{}{
			"acked":      acked,
			"latency_ms": float64(latency) / float64(time.Millisecond),
		},
		at,
	)
}
