// Package api implements the read-only diagnostics HTTP API and WebSocket
// event stream.
//
// This package provides:
//   - REST endpoints for vehicle status, the timeline catalogue and the journal
//   - A WebSocket hub that relays telemetry events to subscribed clients
//   - Middleware stack (request ID, logging, recovery)
//
// # Read-only
//
// Nothing here can move the vehicle. Operator control stays with the
// keyboard and the IR remote; the API reads the controller's published
// snapshot and never touches the control loop.
//
// # Graceful Degradation
//
// Every dependency except the logger is optional. Endpoints whose backing
// component is not configured answer 503.
package api
