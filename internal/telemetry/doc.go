// Package telemetry carries observations off the control loop.
//
// The Publisher implements the observer interfaces of the scheduler, the
// vehicle model, the audio player and the controller. Each callback only
// enqueues; a single worker goroutine fans events out to the configured
// sinks (MQTT, InfluxDB, the WebSocket hub and the SQLite journal). When
// the queue is full the event is dropped and counted, so a slow broker can
// never stall a tick.
package telemetry
