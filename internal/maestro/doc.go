// Package maestro drives a Pololu Maestro USB servo controller over its
// serial command protocol.
//
// The vehicle's four axes are hobby servos positioned in degrees; the light
// channels are Maestro outputs whose target is scaled between an off and an
// on value. Driver implements both vehicle.Driver and lighting.Output so
// one serial link carries every actuator.
//
// Targets are in quarter-microseconds and encoded as two 7-bit bytes. The
// compact protocol is used when the configured device number is zero;
// otherwise every command carries the Pololu 0xAA preamble and device number.
//
// Simulator stands in for the controller when hardware.simulate is set.
package maestro
