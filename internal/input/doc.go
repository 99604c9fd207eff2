// Package input produces raw operator codes for the control loop.
//
// Two producers exist: Keyboard reads single keystrokes from a terminal in
// raw mode, and IRBridge reads NEC command codes, one hex number per line,
// from a serial infra-red receiver. Each runs in its own goroutine and only
// sends RawCode values on a channel; translation into symbols happens on the
// control loop.
package input
