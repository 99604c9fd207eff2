// Package vehicle holds the actuator position model.
//
// The model tracks the last commanded position of each axis, clamps every
// target into the calibrated range, and couples tilt and turn moves to
// thruster intents so the vehicle appears to fly in the direction it leans:
//
//	tilt up (toward max)    → thrust forward
//	tilt down               → thrust back
//	turn up (toward max)    → thrust left
//	turn down               → thrust right
//	tilt already at max     → full thrust
//	no movement otherwise   → hover
//
// Positions are degrees. The model never returns errors: out-of-range
// targets are clamped and driver failures are logged.
//
// The model is not safe for concurrent use. It belongs to the control loop.
package vehicle
