package buttons

import (
	"fmt"

	"github.com/itohio/capdance/pkg/pad"
)

// HID keyboard usage IDs.
const (
	KeyNone        uint8 = 0x00
	KeyC           uint8 = 0x06
	KeyE           uint8 = 0x08
	KeyQ           uint8 = 0x14
	KeyS           uint8 = 0x16
	KeyZ           uint8 = 0x1d
	KeyEnter       uint8 = 0x28
	KeyEscape      uint8 = 0x29
	KeyBackslash   uint8 = 0x31
	KeySlash       uint8 = 0x38
	KeyArrowRight  uint8 = 0x4f
	KeyArrowLeft   uint8 = 0x50
	KeyArrowDown   uint8 = 0x51
	KeyArrowUp     uint8 = 0x52
	KeyKeypadEnter uint8 = 0x58
	KeyKeypad1     uint8 = 0x59
	KeyKeypad2     uint8 = 0x5a
	KeyKeypad3     uint8 = 0x5b
	KeyKeypad4     uint8 = 0x5c
	KeyKeypad5     uint8 = 0x5d
	KeyKeypad6     uint8 = 0x5e
	KeyKeypad7     uint8 = 0x5f
	KeyKeypad8     uint8 = 0x60
	KeyKeypad9     uint8 = 0x61
	KeyKeypad0     uint8 = 0x62
)

// Keymap maps game buttons to keyboard usage IDs.
type Keymap [pad.NumButtons]uint8

var keymaps = map[int]Keymap{
	1: {
		pad.Up:        KeyArrowUp,
		pad.Down:      KeyArrowDown,
		pad.Left:      KeyArrowLeft,
		pad.Right:     KeyArrowRight,
		pad.Middle:    KeyS,
		pad.UpLeft:    KeyQ,
		pad.UpRight:   KeyE,
		pad.DownLeft:  KeyZ,
		pad.DownRight: KeyC,
		pad.Start:     KeyEnter,
		pad.Select:    KeySlash,
		pad.Back:      KeyEscape,
	},
	2: {
		pad.Up:        KeyKeypad8,
		pad.Down:      KeyKeypad2,
		pad.Left:      KeyKeypad4,
		pad.Right:     KeyKeypad6,
		pad.Middle:    KeyKeypad5,
		pad.UpLeft:    KeyKeypad7,
		pad.UpRight:   KeyKeypad9,
		pad.DownLeft:  KeyKeypad1,
		pad.DownRight: KeyKeypad3,
		pad.Start:     KeyKeypadEnter,
		pad.Select:    KeyKeypad0,
		pad.Back:      KeyBackslash,
	},
}

// PlayerKeymap returns the keymap of player 1 or 2.
func PlayerKeymap(player int) (Keymap, error) {
	km, ok := keymaps[player]
	if !ok {
		return Keymap{}, fmt.Errorf("no keymap for player %d", player)
	}
	return km, nil
}

// ReportKeys is the number of keycodes in a boot keyboard report.
const ReportKeys = 6

// Report is the keycode array of a keyboard report.
type Report [ReportKeys]uint8

// BuildReport lists the keycodes of active buttons in button order. Buttons past
// the sixth active one are left out.
func BuildReport(b Bitmap, km Keymap) Report {
	var r Report
	n := 0
	for btn, on := range b {
		if !on {
			continue
		}
		if n == ReportKeys {
			break
		}
		r[n] = km[btn]
		n++
	}
	return r
}
