// Package choreography holds the catalogue of named timelines the vehicle
// can perform.
//
// Three timelines are built in: power-on, power-off and cut-scene-01. A
// YAML file can add timelines, replace built-ins by name and bind timelines
// to the digit keys 2 to 9. Digit 1 always plays cut-scene-01:
//
//	timelines:
//	  - name: patrol
//	    description: Slow sweep with the search light on
//	    digit: 2
//	    events:
//	      - {action: tail-lights-on, offset_ms: 0}
//	      - {action: search-lights-on, offset_ms: 500}
//	      - {action: play-fly-more, offset_ms: 1000, repeat_ms: 30000}
//
// Events must be listed in offset order. Offsets that go backwards are
// accepted with a warning: a timeline too large for the timer table is
// walked in listed order, so a backwards offset fires late.
//
// # Thread Safety
//
// Catalog is safe for concurrent use; the diagnostics API lists it while
// the control loop reads from it.
package choreography
