package buttons

import (
	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/stats"
)

// WindowDecider turns window statistics into per-sensor states. It remembers
// the previous state of every sensor for the hysteresis of the avg and iir decisions.
type WindowDecider struct {
	active []bool
}

// NewWindowDecider creates a decider for n sensors.
func NewWindowDecider(n int) *WindowDecider {
	return &WindowDecider{active: make([]bool, n)}
}

// Decide updates the states from snap using the filter type of t. Sensors
// missing from snap keep their state. The result is owned by the decider.
func (w *WindowDecider) Decide(snap *stats.Snapshot, t *config.Tunables) []bool {
	d := t.Decision()
	for i := range w.active {
		if i >= len(snap.BySensor) {
			break
		}
		w.active[i] = snap.Active(i, d, w.active[i], t.Hysteresis)
	}
	return w.active
}

// Active returns the last decided states.
func (w *WindowDecider) Active() []bool {
	return w.active
}
