// Package controller runs the vehicle's single control loop.
//
// The Controller owns all mutable vehicle state: axis positions, light
// patterns, audio volume and the timeline scheduler. Run ticks at a fixed
// interval; each tick fires due timeline actions, handles at most one
// pending operator code, renders the lights and publishes a snapshot.
//
// Other goroutines never touch that state. Input producers hand raw codes
// over a channel, and readers such as the diagnostics API see only the
// immutable Snapshot published after each tick.
package controller
