// Package sensor reads raw discharge timings from capacitive sensors.
//
// A Bank is the hardware side: it configures channels and blocks until a channel
// produces one discharge counter. A Poller walks a layout over a Bank, one round
// per call. A stuck channel blocks the round, and with it every other sensor.
package sensor

import (
	"errors"
	"fmt"

	"github.com/itohio/capdance/pkg/pad"
)

// Timeout is the discharge counter start value. The counter counts down while
// the pad discharges, so a larger capacitance leaves a smaller counter.
const Timeout = 1 << 12

// ErrClosed is returned by a bank that was closed while a read was pending.
var ErrClosed = errors.New("sensor bank closed")

// Raw converts a discharge counter into a reading where higher means more capacitance.
func Raw(counter uint16) int16 {
	return int16(Timeout - int32(counter))
}

// Bank is a set of hardware sensor channels.
type Bank interface {
	// Configure prepares the channel of s. Called once per sensor before polling.
	Configure(s pad.SensorConfig) error
	// Arm restarts the channel of s. Sequential polling re-arms before every read.
	Arm(s pad.SensorConfig) error
	// Read blocks until the channel of s produces a counter.
	Read(s pad.SensorConfig) (uint16, error)
}

// Poller reads every sensor of a layout once per round.
type Poller interface {
	// Init configures every channel.
	Init() error
	// Poll fills dst, indexed by sensor index, with one raw reading per sensor.
	Poll(dst []int16) error
	// Len returns the number of sensors per round.
	Len() int
}

var (
	_ Bank   = (*Serial)(nil)
	_ Bank   = (*Mock)(nil)
	_ Poller = (*SequentialPoller)(nil)
	_ Poller = (*ParallelPoller)(nil)
)

// NewPoller selects the polling strategy the layout was wired for.
func NewPoller(layout *pad.Layout, bank Bank) (Poller, error) {
	switch layout.Polling() {
	case pad.PollingSequential:
		return &SequentialPoller{layout: layout, bank: bank}, nil
	case pad.PollingParallel:
		return &ParallelPoller{layout: layout, bank: bank}, nil
	}
	return nil, fmt.Errorf("sensor: unsupported polling %s", layout.Polling())
}
