// Package buttons turns per-sensor press states into game buttons and keyboard reports.
package buttons

import (
	"strings"

	"github.com/itohio/capdance/pkg/pad"
)

// Bitmap holds one active flag per game button.
type Bitmap [pad.NumButtons]bool

// Derive ORs the sensor states into their mapped buttons. pressed is indexed by sensor index.
func Derive(layout *pad.Layout, pressed []bool) (Bitmap, error) {
	var b Bitmap
	if err := layout.CheckLen("pressed states", len(pressed)); err != nil {
		return b, err
	}
	for i, p := range pressed {
		if p {
			b[layout.Sensor(pad.SensorIndex(i)).Button] = true
		}
	}
	return b, nil
}

// Any reports whether any button is active.
func (b Bitmap) Any() bool {
	for _, on := range b {
		if on {
			return true
		}
	}
	return false
}

// Format renders the buttons in order as short labels, "--" for inactive ones.
func (b Bitmap) Format(order []pad.Button) string {
	var sb strings.Builder
	for i, btn := range order {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if b[btn] {
			sb.WriteString(btn.Label())
		} else {
			sb.WriteString("--")
		}
	}
	return sb.String()
}
