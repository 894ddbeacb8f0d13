package touch

import (
	"math"
	"sync/atomic"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/filter"
)

// NormalizedFilter runs an exponential Hull moving average over baseline-subtracted
// readings. Its coefficient follows iir_filter_b without resetting state, and the
// press/release offsets apply directly to the normalized value.
type NormalizedFilter struct {
	baseline float32

	tun  *config.Tunables
	ehma *filter.EHMA
	hyst Hysteresis

	pressed atomic.Bool
	value   atomic.Uint32
}

// NewNormalizedFilter creates a normalized filter for a sensor with the given baseline.
func NewNormalizedFilter(baseline float32, t *config.Tunables) *NormalizedFilter {
	f := &NormalizedFilter{
		baseline: baseline,
		ehma:     filter.NewEHMA(t.IIRFilterB),
	}
	f.refresh(t)
	return f
}

// Update feeds one raw reading.
func (f *NormalizedFilter) Update(raw int16, t *config.Tunables) bool {
	if t != f.tun {
		f.refresh(t)
	}
	v := f.ehma.Update(float32(raw) - f.baseline)
	pressed := f.hyst.Step(v)

	f.value.Store(math.Float32bits(v))
	f.pressed.Store(pressed)
	return pressed
}

func (f *NormalizedFilter) refresh(t *config.Tunables) {
	f.tun = t
	if f.ehma.Alpha() != t.IIRFilterB {
		f.ehma.SetAlpha(t.IIRFilterB)
	}
	f.hyst.Press = float32(t.PressThreshold)
	f.hyst.Release = float32(t.ReleaseThreshold)
}

// Pressed returns the state after the latest update.
func (f *NormalizedFilter) Pressed() bool {
	return f.pressed.Load()
}

// Value returns the latest normalized value.
func (f *NormalizedFilter) Value() float32 {
	return math.Float32frombits(f.value.Load())
}

// Baseline returns the calibrated baseline.
func (f *NormalizedFilter) Baseline() float32 {
	return f.baseline
}

// Alpha returns the coefficient in use. Sampling loop only.
func (f *NormalizedFilter) Alpha() float32 {
	return f.ehma.Alpha()
}
