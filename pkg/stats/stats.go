package stats

import (
	"errors"
)

// ErrNoSamples is returned when a mean is requested from an empty window.
var ErrNoSamples = errors.New("no samples in window")

// DefaultIIRCoefficient is the weight kept from the previous IIR value.
const DefaultIIRCoefficient = 0.8

// RunningStats aggregates one sampling window of raw values for a single sensor.
//
// The zero value is ready to use with threshold 0 and no IIR smoothing
// (IIRCoefficient 0 makes the IIR value follow the latest sample).
type RunningStats struct {
	Threshold      int16   // values strictly above count as "above"
	IIRCoefficient float32 // b in iir = b*iir + (1-b)*v

	sum        int64
	countAbove uint32
	countBelow uint32
	iir        float32
	iirValid   bool
}

// New returns an accumulator for the given threshold and IIR coefficient.
func New(threshold int16, iirCoefficient float32) RunningStats {
	return RunningStats{Threshold: threshold, IIRCoefficient: iirCoefficient}
}

// Add accumulates v into the window.
func (s *RunningStats) Add(v int16) {
	s.sum += int64(v)
	if v > s.Threshold {
		s.countAbove++
	} else {
		s.countBelow++
	}
	if !s.iirValid {
		s.iir = float32(v)
		s.iirValid = true
	} else {
		b := s.IIRCoefficient
		s.iir = b*s.iir + (1-b)*float32(v)
	}
}

// Count returns the number of values added since the last reset.
func (s *RunningStats) Count() uint32 {
	return s.countAbove + s.countBelow
}

// CountAbove returns how many values were strictly above the threshold.
func (s *RunningStats) CountAbove() uint32 {
	return s.countAbove
}

// CountBelow returns how many values were at or below the threshold.
func (s *RunningStats) CountBelow() uint32 {
	return s.countBelow
}

// Sum returns the sum of all values in the window.
func (s *RunningStats) Sum() int64 {
	return s.sum
}

// Mean returns the integer mean of the window, truncated toward zero.
// An empty window returns ErrNoSamples.
func (s *RunningStats) Mean() (int16, error) {
	n := s.Count()
	if n == 0 {
		return 0, ErrNoSamples
	}
	return int16(s.sum / int64(n)), nil
}

// MeanFloat returns the mean of the window. An empty window returns ErrNoSamples.
func (s *RunningStats) MeanFloat() (float32, error) {
	n := s.Count()
	if n == 0 {
		return 0, ErrNoSamples
	}
	return float32(float64(s.sum) / float64(n)), nil
}

// IIRValue returns the IIR filtered value and whether any sample has been seen.
func (s *RunningStats) IIRValue() (float32, bool) {
	return s.iir, s.iirValid
}

// IsAboveThreshold is a majority vote over the window: true when at least half of
// the values were above the threshold. Ties count as active. An empty window is
// never above the threshold.
func (s *RunningStats) IsAboveThreshold() bool {
	if s.Count() == 0 {
		return false
	}
	return s.countAbove >= s.countBelow
}

// MeanIsAboveThreshold compares the window mean with the threshold. While active
// the threshold is lowered by hysteresis.
func (s *RunningStats) MeanIsAboveThreshold(active bool, hysteresis float32) bool {
	mean, err := s.MeanFloat()
	if err != nil {
		return false
	}
	return mean >= s.effectiveThreshold(active, hysteresis)
}

// IIRIsAboveThreshold compares the IIR value with the threshold. While active
// the threshold is lowered by hysteresis.
func (s *RunningStats) IIRIsAboveThreshold(active bool, hysteresis float32) bool {
	v, ok := s.IIRValue()
	if !ok {
		return false
	}
	return v >= s.effectiveThreshold(active, hysteresis)
}

// Reset clears the window. Threshold and IIR coefficient are kept.
func (s *RunningStats) Reset() {
	*s = RunningStats{Threshold: s.Threshold, IIRCoefficient: s.IIRCoefficient}
}

func (s *RunningStats) effectiveThreshold(active bool, hysteresis float32) float32 {
	if active {
		return float32(s.Threshold) - hysteresis
	}
	return float32(s.Threshold)
}
