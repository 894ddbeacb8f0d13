package handoff

import (
	"math"
	"time"
)

// Status is a coarse state shown on the status LED.
type Status uint8

const (
	StatusInit Status = iota
	StatusSensorsInit
	StatusSensorsCalibrating
	StatusSensorsOK
	StatusNotMounted
	StatusMounted
	StatusSuspended
	StatusAlwaysOn
	StatusAlwaysOff
)

// AlwaysOn is the blink interval of a LED that stays lit.
const AlwaysOn = time.Duration(math.MaxUint32) * time.Millisecond

var statusNames = [...]string{
	StatusInit:               "init",
	StatusSensorsInit:        "sensors_init",
	StatusSensorsCalibrating: "sensors_calibrating",
	StatusSensorsOK:          "sensors_ok",
	StatusNotMounted:         "not_mounted",
	StatusMounted:            "mounted",
	StatusSuspended:          "suspended",
	StatusAlwaysOn:           "always_on",
	StatusAlwaysOff:          "always_off",
}

var blinkIntervals = [...]time.Duration{
	StatusInit:               1000 * time.Millisecond,
	StatusSensorsInit:        100 * time.Millisecond,
	StatusSensorsCalibrating: 250 * time.Millisecond,
	StatusSensorsOK:          0,
	StatusNotMounted:         1500 * time.Millisecond,
	StatusMounted:            1000 * time.Millisecond,
	StatusSuspended:          2500 * time.Millisecond,
	StatusAlwaysOn:           AlwaysOn,
	StatusAlwaysOff:          0,
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// BlinkInterval is the LED toggle period for s. Zero keeps the LED off.
func (s Status) BlinkInterval() time.Duration {
	if int(s) < len(blinkIntervals) {
		return blinkIntervals[s]
	}
	return 0
}
