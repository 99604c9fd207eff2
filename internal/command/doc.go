// Package command translates operator input into symbols and routes each
// symbol to effects, timeline starts or resets.
//
// Keystrokes and infra-red remote codes share one symbol alphabet:
//
//	*   power on/off sequence       0     stop audio
//	+   volume up                   1..9  reset, then play the bound timeline
//	-   volume down                 !     landing lights on/off
//	|   level (tilt, turn, thrust)  =     weapon on/off
//	<   turn left                   /     search lights on/off
//	>   turn right                  V     move down (tilt forward)
//	^   move up (tilt backward)
//
// Toggles read the current light state before choosing the action, so the
// same symbol alternates between on and off.
package command
