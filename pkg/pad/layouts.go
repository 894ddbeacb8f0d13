package pad

import (
	"fmt"
	"sort"
)

// Built-in layouts.
const (
	LayoutITG8 = "itg8"
	LayoutITG  = "itg"
	LayoutPump = "pump"
)

//	- A B -
//	H - - C
//	G - - D
//	- F E -
var itg8Sensors = []SensorConfig{
	{Button: Up, Pin: 14, Group: 0, Channel: 3},    // A
	{Button: Up, Pin: 15, Group: 1, Channel: 3},    // B
	{Button: Right, Pin: 13, Group: 0, Channel: 2}, // C
	{Button: Right, Pin: 12, Group: 1, Channel: 2}, // D
	{Button: Down, Pin: 11, Group: 0, Channel: 1},  // E
	{Button: Down, Pin: 10, Group: 1, Channel: 1},  // F
	{Button: Left, Pin: 8, Group: 0, Channel: 0},   // G
	{Button: Left, Pin: 9, Group: 1, Channel: 0},   // H
}

//	- A -
//	D - B
//	- C -
//
// plus the menu buttons.
var itgSensors = []SensorConfig{
	{Button: Up, Pin: 7},    // A
	{Button: Right, Pin: 9}, // B
	{Button: Down, Pin: 8},  // C
	{Button: Left, Pin: 6},  // D
	{Button: Start, Pin: 5},
	{Button: Select, Pin: 4},
	{Button: Back, Pin: 3},
}

//	A - B
//	- C -
//	D - E
var pumpSensors = []SensorConfig{
	{Button: UpLeft, Pin: 6},
	{Button: UpRight, Pin: 10},
	{Button: Middle, Pin: 8},
	{Button: DownLeft, Pin: 7},
	{Button: DownRight, Pin: 12},
}

var builtin = map[string]func() (*Layout, error){
	LayoutITG8: func() (*Layout, error) {
		return NewLayout(LayoutITG8, itg8Sensors, []Button{Left, Down, Up, Right}, PollingParallel)
	},
	LayoutITG: func() (*Layout, error) {
		// menu buttons are reported over HID but not plotted
		return NewLayout(LayoutITG, itgSensors, []Button{Left, Down, Up, Right}, PollingSequential)
	},
	LayoutPump: func() (*Layout, error) {
		return NewLayout(LayoutPump, pumpSensors, []Button{DownLeft, UpLeft, Middle, UpRight, DownRight}, PollingSequential)
	},
}

// Builtin returns one of the built-in layouts by name.
func Builtin(name string) (*Layout, error) {
	build, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown layout %q (known: %v)", ErrInvalidLayout, name, BuiltinNames())
	}
	return build()
}

// BuiltinNames lists the built-in layout names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
