package command

import (
	"fmt"
	"unicode"
)

// Symbol is one operator command.
type Symbol byte

// Symbols.
const (
	Power         Symbol = '*'
	VolumeUp      Symbol = '+'
	VolumeDown    Symbol = '-'
	Level         Symbol = '|'
	TurnLeft      Symbol = '<'
	TurnRight     Symbol = '>'
	MoveDown      Symbol = 'V'
	MoveUp        Symbol = '^'
	ToggleLanding Symbol = '!'
	ToggleWeapon  Symbol = '='
	ToggleSearch  Symbol = '/'
	StopAudio     Symbol = '0'
)

// NECRepeat is sent by NEC remotes while a key is held.
const NECRepeat uint32 = 0xFFFFFFFF

var irSymbols = map[uint32]Symbol{
	0x45: Power,         // power
	0x47: ToggleLanding, // func/stop
	0x19: ToggleWeapon,  // EQ
	0x0D: ToggleSearch,  // ST/REPT
	0x46: VolumeUp,      // vol+
	0x15: VolumeDown,    // vol-
	0x44: TurnLeft,      // rewind
	0x40: Level,         // play/pause
	0x43: TurnRight,     // fast forward
	0x07: MoveDown,      // down
	0x09: MoveUp,        // up
	0x16: '0',
	0x0C: '1',
	0x18: '2',
	0x5E: '3',
	0x08: '4',
	0x1C: '5',
	0x5A: '6',
	0x42: '7',
	0x52: '8',
	0x4A: '9',
}

// String returns the symbol as typed.
func (s Symbol) String() string {
	return string(rune(s))
}

// IsDigit reports whether s is 0..9.
func (s Symbol) IsDigit() bool {
	return s >= '0' && s <= '9'
}

// Valid reports whether s is part of the alphabet.
func (s Symbol) Valid() bool {
	switch s {
	case Power, VolumeUp, VolumeDown, Level, TurnLeft, TurnRight,
		MoveDown, MoveUp, ToggleLanding, ToggleWeapon, ToggleSearch:
		return true
	}
	return s.IsDigit()
}

// TranslateKey maps a keystroke to a symbol. Letters are case-insensitive.
func TranslateKey(b byte) (Symbol, error) {
	s := Symbol(unicode.ToUpper(rune(b)))
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, b)
	}
	return s, nil
}

// TranslateIR maps an NEC command code to a symbol.
func TranslateIR(code uint32) (Symbol, error) {
	if code == NECRepeat {
		return 0, ErrRepeatCode
	}
	s, ok := irSymbols[code]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%X", ErrUnknownCode, code)
	}
	return s, nil
}
