package sampler

import (
	"errors"
	"fmt"
	"math"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/stats"
)

// Calibration is the result of the calibration phase. It never changes afterwards.
type Calibration struct {
	Baselines  []float32 // mean untouched reading per sensor
	Thresholds []int16   // windowed-mode threshold per sensor
	Samples    []uint32  // readings per sensor that went into the baseline
}

// calibrator accumulates calibration readings, skipping the first warmup
// readings of every sensor.
type calibrator struct {
	warmup  uint64
	seen    []uint64
	running []stats.RunningStats
}

func newCalibrator(n int, warmup uint64) *calibrator {
	return &calibrator{
		warmup:  warmup,
		seen:    make([]uint64, n),
		running: make([]stats.RunningStats, n),
	}
}

func (c *calibrator) add(round []int16) {
	for i, v := range round {
		c.seen[i]++
		if c.seen[i] <= c.warmup {
			continue
		}
		c.running[i].Add(v)
	}
}

// finish computes baselines and thresholds. A sensor without a single reading
// past the warm-up fails the calibration.
func (c *calibrator) finish(t *config.Tunables) (*Calibration, error) {
	cal := &Calibration{
		Baselines:  make([]float32, len(c.running)),
		Thresholds: make([]int16, len(c.running)),
		Samples:    make([]uint32, len(c.running)),
	}
	for i := range c.running {
		mean, err := c.running[i].MeanFloat()
		if errors.Is(err, stats.ErrNoSamples) {
			return nil, fmt.Errorf("calibrate sensor %d: %d readings, all within warm-up of %d: %w", i, c.seen[i], c.warmup, err)
		}
		cal.Baselines[i] = mean
		cal.Thresholds[i] = clampThreshold(t.Threshold(mean))
		cal.Samples[i] = c.running[i].Count()
	}
	return cal, nil
}

func clampThreshold(v float32) int16 {
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
