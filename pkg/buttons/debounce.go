package buttons

import (
	"time"

	"github.com/itohio/capdance/pkg/pad"
)

// Debouncer locks every button in its state for the debounce window after it
// changes. A contrary reading within the window is ignored; one that is still
// there once the window has passed is latched.
type Debouncer struct {
	now   func() time.Time
	state Bitmap
	since [pad.NumButtons]time.Time
}

// NewDebouncer creates a debouncer. A nil clock uses time.Now.
func NewDebouncer(now func() time.Time) *Debouncer {
	if now == nil {
		now = time.Now
	}
	return &Debouncer{now: now}
}

// Apply feeds the raw bitmap and returns the debounced one. A zero window passes
// raw through.
func (d *Debouncer) Apply(raw Bitmap, window time.Duration) Bitmap {
	now := d.now()
	for btn := range raw {
		if raw[btn] == d.state[btn] {
			continue
		}
		if window > 0 && !d.since[btn].IsZero() && now.Sub(d.since[btn]) < window {
			continue
		}
		d.state[btn] = raw[btn]
		d.since[btn] = now
	}
	return d.state
}

// State returns the last debounced bitmap.
func (d *Debouncer) State() Bitmap {
	return d.state
}
