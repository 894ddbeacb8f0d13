package filter

import "math"

// MaxWindowSize is the largest window a WeightedMovingAverage keeps.
// With int16 samples and weights up to MaxWindowSize the running sums fit in int32.
const MaxWindowSize = 256

// Averager smooths a stream of raw samples, one call per new sample.
type Averager interface {
	GetAverage(value int16) int16
}

var (
	_ Averager = (*WeightedMovingAverage)(nil)
	_ Averager = (*HullMovingAverage)(nil)
)

// WeightedMovingAverage keeps the last N values in a circular buffer and weights
// the newest value N and the oldest 1.
//
// Slots that were never written count as zero, so the output ramps up from zero
// until the window has filled once.
type WeightedMovingAverage struct {
	size        int
	sum         int32
	weightedSum int32
	values      [MaxWindowSize]int16
	cursor      int
}

// NewWeightedMovingAverage creates a WMA with the given window size, clamped to [1, MaxWindowSize].
func NewWeightedMovingAverage(size int) *WeightedMovingAverage {
	return &WeightedMovingAverage{size: clampSize(size)}
}

// GetAverage adds value to the window and returns the new weighted average.
func (w *WeightedMovingAverage) GetAverage(value int16) int16 {
	v := int32(value)
	nextSum := w.sum + v - int32(w.values[w.cursor])
	// Subtracting the old sum drops every weight by one, which removes the oldest value (weight 1).
	nextWeighted := w.weightedSum + int32(w.size)*v - w.sum

	w.sum = nextSum
	w.weightedSum = nextWeighted
	w.values[w.cursor] = value
	w.cursor = (w.cursor + 1) % w.size

	return saturate(nextWeighted / w.sumOfWeights())
}

// Fill sets every slot of the window to value, as if value had been fed size times.
func (w *WeightedMovingAverage) Fill(value int16) {
	for i := 0; i < w.size; i++ {
		w.values[i] = value
	}
	w.cursor = 0
	w.sum = int32(w.size) * int32(value)
	w.weightedSum = w.sumOfWeights() * int32(value)
}

// Size returns the window size.
func (w *WeightedMovingAverage) Size() int {
	return w.size
}

func (w *WeightedMovingAverage) sumOfWeights() int32 {
	n := int32(w.size)
	return n * (n + 1) / 2
}

// HullMovingAverage computes WMA(2*WMA(x, n/2) - WMA(x, n), sqrt(n)).
// It smooths about as well as a WMA of the same size while lagging less behind steps.
type HullMovingAverage struct {
	size int
	half *WeightedMovingAverage
	full *WeightedMovingAverage
	hull *WeightedMovingAverage
}

// NewHullMovingAverage creates an HMA of the given window size.
// Changing the size later means building a new HMA; state is not carried over.
func NewHullMovingAverage(size int) *HullMovingAverage {
	size = clampSize(size)
	return &HullMovingAverage{
		size: size,
		half: NewWeightedMovingAverage(size / 2),
		full: NewWeightedMovingAverage(size),
		hull: NewWeightedMovingAverage(int(math.Sqrt(float64(size)))),
	}
}

// GetAverage adds value to the filter and returns the smoothed value.
func (h *HullMovingAverage) GetAverage(value int16) int16 {
	half := int32(h.half.GetAverage(value))
	full := int32(h.full.GetAverage(value))
	return h.hull.GetAverage(saturate(2*half - full))
}

// Fill settles all three stages on value so the next output starts from there
// instead of ramping up from zero.
func (h *HullMovingAverage) Fill(value int16) {
	h.half.Fill(value)
	h.full.Fill(value)
	h.hull.Fill(value)
}

// Size returns the window size the filter was built with.
func (h *HullMovingAverage) Size() int {
	return h.size
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxWindowSize {
		return MaxWindowSize
	}
	return size
}

func saturate(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
