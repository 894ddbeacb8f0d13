package pad

import (
	"fmt"
	"strings"
)

// Button is a logical game button.
type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	// pump and smx panels
	Middle
	UpLeft
	UpRight
	DownLeft
	DownRight
	// menu
	Start
	Select
	Back

	NumButtons
	InvalidButton Button = 0xff
)

var buttonNames = [NumButtons]string{
	Up:        "up",
	Down:      "down",
	Left:      "left",
	Right:     "right",
	Middle:    "middle",
	UpLeft:    "up_left",
	UpRight:   "up_right",
	DownLeft:  "down_left",
	DownRight: "down_right",
	Start:     "start",
	Select:    "select",
	Back:      "back",
}

var buttonLabels = [NumButtons]string{
	Up:        "UU",
	Down:      "DD",
	Left:      "LL",
	Right:     "RR",
	Middle:    "MI",
	UpLeft:    "UL",
	UpRight:   "UR",
	DownLeft:  "DL",
	DownRight: "DR",
	Start:     "ST",
	Select:    "SE",
	Back:      "BK",
}

// Valid reports whether b names a real button.
func (b Button) Valid() bool {
	return b < NumButtons
}

// String returns the config name of the button.
func (b Button) String() string {
	if !b.Valid() {
		return fmt.Sprintf("button(%d)", uint8(b))
	}
	return buttonNames[b]
}

// Label returns the two letter label used in telemetry.
func (b Button) Label() string {
	if !b.Valid() {
		return "##"
	}
	return buttonLabels[b]
}

// ParseButton parses a config name ("up", "down_left", ...).
func ParseButton(s string) (Button, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range buttonNames {
		if name == s {
			return Button(i), nil
		}
	}
	return InvalidButton, fmt.Errorf("unknown button %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (b Button) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid button %d", uint8(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
