// Package timeline schedules choreographies: ordered tables of actions,
// each due at a millisecond offset from the moment the timeline starts.
//
// # Timer table
//
// Scheduling rests on a small fixed-capacity timer table with one-shot and
// repeating timers. A one-shot event takes one slot; a repeating event takes
// two: a one-shot at its offset and an interval whose first firing is delayed
// by the same offset, so a repeat never fires at time zero.
//
// # Step cursor
//
// A timeline that needs more slots than the table holds runs in stepped
// mode: two slots drive a stepper that walks the table from a persistent
// cursor, firing every entry whose offset has elapsed, and cancels its own
// driver when the cursor reaches the end. Stepped tables must be authored in
// non-decreasing offset order; an entry listed after a later one fires late.
//
// # Preemption
//
// Start cancels everything pending before arming the new timeline, and a
// cancelled timer never fires, even if it was already due in the same tick.
// Within one tick, due timers fire in the order they were armed, which is
// the authoring order of the active timeline.
//
// The Scheduler is not safe for concurrent use. Only the control loop calls it.
package timeline
