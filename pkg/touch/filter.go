// Package touch turns raw sensor readings into press/release decisions.
//
// A filter is updated only by the sampling loop. Pressed and Value may be read
// from any goroutine; they return the result of the latest completed update.
package touch

import (
	"math"
	"sync/atomic"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/filter"
)

// Filter is a per-sensor press detector.
type Filter interface {
	Update(raw int16, t *config.Tunables) bool
	Pressed() bool
	Value() float32
	Baseline() float32
}

var (
	_ Filter = (*DataFilter)(nil)
	_ Filter = (*NormalizedFilter)(nil)
)

// DataFilter smooths raw readings with a Hull moving average and applies
// press/release thresholds placed above the calibrated baseline.
type DataFilter struct {
	baseline float32

	tun  *config.Tunables // snapshot the thresholds were derived from
	hma  *filter.HullMovingAverage
	hyst Hysteresis
	cur  int16

	pressed atomic.Bool
	value   atomic.Uint32 // float32 bits of cur - baseline
}

// NewDataFilter creates a filter for a sensor with the given baseline. The HMA
// starts settled at the baseline.
func NewDataFilter(baseline float32, t *config.Tunables) *DataFilter {
	f := &DataFilter{baseline: baseline}
	f.cur = clampRaw(baseline)
	f.refresh(t)
	f.value.Store(math.Float32bits(0))
	return f
}

// Update feeds one raw reading. Thresholds and the window size are re-derived
// only when t differs from the snapshot seen last time.
func (f *DataFilter) Update(raw int16, t *config.Tunables) bool {
	if t != f.tun {
		f.refresh(t)
	}
	f.cur = f.hma.GetAverage(raw)
	pressed := f.hyst.Step(float32(f.cur))

	f.value.Store(math.Float32bits(float32(f.cur) - f.baseline))
	f.pressed.Store(pressed)
	return pressed
}

// refresh re-derives thresholds from t. A new window size rebuilds the HMA,
// settled at the last filtered value; the pressed state is kept.
func (f *DataFilter) refresh(t *config.Tunables) {
	f.tun = t
	press, release := Thresholds(f.baseline, t)
	f.hyst.Press = press
	f.hyst.Release = release

	if f.hma == nil || f.hma.Size() != int(t.HMAWindowSize) {
		f.hma = filter.NewHullMovingAverage(int(t.HMAWindowSize))
		f.hma.Fill(f.cur)
	}
}

// Pressed returns the state after the latest update.
func (f *DataFilter) Pressed() bool {
	return f.pressed.Load()
}

// Value returns the latest filtered reading relative to the baseline.
func (f *DataFilter) Value() float32 {
	return math.Float32frombits(f.value.Load())
}

// Baseline returns the calibrated baseline.
func (f *DataFilter) Baseline() float32 {
	return f.baseline
}

// WindowSize returns the HMA window in use. Sampling loop only.
func (f *DataFilter) WindowSize() int {
	return f.hma.Size()
}

// Thresholds returns the absolute press and release levels for a baseline.
func Thresholds(baseline float32, t *config.Tunables) (press, release float32) {
	return baseline + float32(t.PressThreshold), baseline + float32(t.ReleaseThreshold)
}

func clampRaw(v float32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
