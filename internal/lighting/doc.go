// Package lighting keeps the state of the vehicle's light channels and
// renders their patterns into output levels.
//
// A pattern is requested with SetState and starts at the next Update. Update
// is called once per control-loop tick; it computes a brightness between 0
// and 1 for every channel and writes only the levels that changed.
//
// Patterns:
//
//	Off, On    steady
//	Flash      square wave forever (weapon 50 ms on/off, others 250 ms)
//	Burst      two flash cycles, then Off
//	FadeOn     ramp to full over 1.5 s, then On
//	FadeOff    ramp to dark over 1.5 s, then Off
//	Breathe    1.5 s up, 7 s hold, 1.5 s down, then Off
//
// FadeOn and Breathe are ignored on a lit channel; FadeOff is ignored on a
// dark one.
package lighting
