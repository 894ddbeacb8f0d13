package pad

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLayoutMismatch is returned when a per-sensor table does not match the layout.
	ErrLayoutMismatch = errors.New("sensor count mismatch")
	// ErrInvalidLayout is returned for layouts that cannot be polled.
	ErrInvalidLayout = errors.New("invalid layout")
)

// Polling selects how the sensor bank is read.
type Polling int

const (
	// PollingParallel keeps every channel armed and reads each group in turn.
	PollingParallel Polling = iota + 1
	// PollingSequential re-arms a single channel for every sensor in turn.
	PollingSequential
)

func (p Polling) String() string {
	switch p {
	case PollingParallel:
		return "parallel"
	case PollingSequential:
		return "sequential"
	}
	return fmt.Sprintf("polling(%d)", int(p))
}

// ParsePolling parses "parallel" or "sequential".
func ParsePolling(s string) (Polling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parallel":
		return PollingParallel, nil
	case "sequential":
		return PollingSequential, nil
	}
	return 0, fmt.Errorf("unknown polling type %q", s)
}

// SensorIndex addresses a sensor in every per-sensor table of a layout.
type SensorIndex int

// SensorConfig describes one physical sensor. It never changes after startup.
type SensorConfig struct {
	Button  Button `yaml:"button"`
	Pin     uint8  `yaml:"pin"`
	Group   uint8  `yaml:"group"`   // polling group (PIO block)
	Channel uint8  `yaml:"channel"` // channel within the group (state machine)
}

// Layout is a validated sensor table. Every per-sensor array in the system is
// sized by Len and indexed by SensorIndex.
type Layout struct {
	name    string
	sensors []SensorConfig
	order   []Button
	polling Polling
	groups  [][]SensorIndex
}

// NewLayout validates sensors and builds a layout. order is the display order of
// buttons in telemetry; when empty the buttons of the sensors are used in index order.
func NewLayout(name string, sensors []SensorConfig, order []Button, polling Polling) (*Layout, error) {
	if len(sensors) == 0 {
		return nil, fmt.Errorf("%w: layout %q has no sensors", ErrInvalidLayout, name)
	}

	pins := make(map[uint8]int, len(sensors))
	slots := make(map[[2]uint8]int, len(sensors))
	groupCount := 0
	for i, s := range sensors {
		if !s.Button.Valid() {
			return nil, fmt.Errorf("%w: sensor %d has invalid button %d", ErrInvalidLayout, i, uint8(s.Button))
		}
		if j, ok := pins[s.Pin]; ok {
			return nil, fmt.Errorf("%w: sensors %d and %d share pin %d", ErrInvalidLayout, j, i, s.Pin)
		}
		pins[s.Pin] = i

		switch polling {
		case PollingSequential:
			if s.Group != 0 || s.Channel != 0 {
				return nil, fmt.Errorf("%w: sequential sensor %d must use group 0 channel 0", ErrInvalidLayout, i)
			}
		case PollingParallel:
			slot := [2]uint8{s.Group, s.Channel}
			if j, ok := slots[slot]; ok {
				return nil, fmt.Errorf("%w: sensors %d and %d share group %d channel %d", ErrInvalidLayout, j, i, s.Group, s.Channel)
			}
			slots[slot] = i
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidLayout, polling)
		}
		if int(s.Group)+1 > groupCount {
			groupCount = int(s.Group) + 1
		}
	}

	l := &Layout{
		name:    name,
		sensors: append([]SensorConfig(nil), sensors...),
		polling: polling,
		groups:  make([][]SensorIndex, groupCount),
	}
	for i, s := range l.sensors {
		l.groups[s.Group] = append(l.groups[s.Group], SensorIndex(i))
	}

	if len(order) == 0 {
		seen := make(map[Button]bool)
		for _, s := range l.sensors {
			if !seen[s.Button] {
				seen[s.Button] = true
				order = append(order, s.Button)
			}
		}
	}
	for _, b := range order {
		if !b.Valid() {
			return nil, fmt.Errorf("%w: display order has invalid button %d", ErrInvalidLayout, uint8(b))
		}
	}
	l.order = append([]Button(nil), order...)

	return l, nil
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// Len returns the number of sensors.
func (l *Layout) Len() int { return len(l.sensors) }

// Polling returns the polling strategy the layout was wired for.
func (l *Layout) Polling() Polling { return l.polling }

// Sensor returns the config of sensor i.
func (l *Layout) Sensor(i SensorIndex) SensorConfig { return l.sensors[i] }

// Sensors returns a copy of the sensor table.
func (l *Layout) Sensors() []SensorConfig {
	return append([]SensorConfig(nil), l.sensors...)
}

// Groups returns sensor indices per polling group. Callers must not modify the result.
func (l *Layout) Groups() [][]SensorIndex { return l.groups }

// Order returns the display order of buttons.
func (l *Layout) Order() []Button { return l.order }

// CheckLen returns ErrLayoutMismatch if a per-sensor table named what has n entries.
func (l *Layout) CheckLen(what string, n int) error {
	if n != len(l.sensors) {
		return fmt.Errorf("%w: %s has %d entries, layout %q has %d sensors", ErrLayoutMismatch, what, n, l.name, len(l.sensors))
	}
	return nil
}
