package main

import (
	"github.com/itohio/capdance/pkg/buttons"
)

// usbBus reports the USB device state the status LED follows.
type usbBus interface {
	Mounted() bool
	Suspended() bool
}

// logHID stands in for a USB keyboard that is mounted for the whole run.
// Reports are logged by the reporter callback.
type logHID struct {
	mounted   bool
	suspended bool
	sent      int
}

func newLogHID() *logHID {
	return &logHID{mounted: true}
}

func (h *logHID) Mounted() bool   { return h.mounted }
func (h *logHID) Ready() bool     { return h.mounted && !h.suspended }
func (h *logHID) Suspended() bool { return h.suspended }
func (h *logHID) RemoteWakeup()   { h.suspended = false }

func (h *logHID) SendKeyboard(r buttons.Report) error {
	h.sent++
	return nil
}

// logLED keeps the LED state; status changes are logged by the report loop.
type logLED struct {
	on bool
}

func (l *logLED) Set(on bool) { l.on = on }
