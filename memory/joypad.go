package memory

import "github.com/marcolindberg/gobc/bit"

// JoypadKey represents one of the eight physical inputs.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad tracks button state and renders the P1 register according to
// which of the two line groups (d-pad, buttons) the game has selected.
// Bits are active-low: 1 means released, 0 means pressed.
type Joypad struct {
	selection uint8 // raw bits 4-5 as last written to P1
	buttons   uint8 // low nibble: A/B/Select/Start state
	dpad      uint8 // low nibble: Right/Left/Up/Down state

	JoypadInterruptHandler func()
}

func NewJoypad() *Joypad {
	return &Joypad{selection: 0b00110000, buttons: 0x0F, dpad: 0x0F}
}

// Read renders the current P1 value: bits 6-7 always read 1, bits 4-5 echo
// the last selection write, bits 0-3 are the selected line group(s) ANDed
// together when both are selected.
func (j *Joypad) Read() byte {
	result := uint8(0b11000000)
	result |= j.selection & 0b00110000

	selectDpad := !bit.IsSet(4, j.selection)
	selectButtons := !bit.IsSet(5, j.selection)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

// Write updates the selection bits (bits 4-5 only; the rest are ignored).
func (j *Joypad) Write(value uint8) {
	j.selection = value & 0b00110000
}

// Press marks a key down, requesting the joypad interrupt if this is a
// high-to-low transition on a line group the game currently has selected.
func (j *Joypad) Press(key JoypadKey) {
	oldButtons, oldDpad := j.buttons, j.dpad
	j.setLine(key, false)

	selectDpad := !bit.IsSet(4, j.selection)
	selectButtons := !bit.IsSet(5, j.selection)

	buttonsFell := selectButtons && oldButtons&^j.buttons != 0
	dpadFell := selectDpad && oldDpad&^j.dpad != 0

	if (buttonsFell || dpadFell) && j.JoypadInterruptHandler != nil {
		j.JoypadInterruptHandler()
	}
}

// Release marks a key up.
func (j *Joypad) Release(key JoypadKey) {
	j.setLine(key, true)
}

func (j *Joypad) setLine(key JoypadKey, released bool) {
	set := bit.Reset
	if released {
		set = bit.Set
	}
	switch key {
	case JoypadRight:
		j.dpad = set(0, j.dpad)
	case JoypadLeft:
		j.dpad = set(1, j.dpad)
	case JoypadUp:
		j.dpad = set(2, j.dpad)
	case JoypadDown:
		j.dpad = set(3, j.dpad)
	case JoypadA:
		j.buttons = set(0, j.buttons)
	case JoypadB:
		j.buttons = set(1, j.buttons)
	case JoypadSelect:
		j.buttons = set(2, j.buttons)
	case JoypadStart:
		j.buttons = set(3, j.buttons)
	}
}
