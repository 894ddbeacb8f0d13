package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/itohio/capdance/pkg/filter"
	"github.com/itohio/capdance/pkg/stats"
)

// ErrInvalidValue is returned when a tunable is out of range or cannot be parsed.
var ErrInvalidValue = errors.New("invalid config value")

// Threshold types used at calibration time.
const (
	ThresholdFactor = 0 // threshold = baseline * threshold_factor
	ThresholdValue  = 1 // threshold = baseline + threshold_value
)

// Filter types. Median, avg and iir decide once per sampling window;
// hma and ehma filter every sample.
const (
	FilterMedian = 0
	FilterAvg    = 1
	FilterIIR    = 2
	FilterHMA    = 3
	FilterEHMA   = 4
)

// SamplingBufferUS is subtracted from every sampling window to leave time for processing.
const SamplingBufferUS = 100

// Tunables are the values the sampling and reporting loops read every cycle.
// A *Tunables obtained from Store.Snapshot must be treated as read-only.
type Tunables struct {
	ThresholdFactor             float32 `yaml:"threshold_factor"`
	ThresholdValue              float32 `yaml:"threshold_value"`
	ThresholdType               int     `yaml:"threshold_type"`
	ThresholdSamplingDurationUS uint64  `yaml:"threshold_sampling_duration_us"`
	SamplingDurationUS          uint64  `yaml:"sampling_duration_us"`
	TeleplotReportIntervalUS    uint64  `yaml:"serial_teleplot_report_interval_us"`
	TeleplotNormalizeValues     bool    `yaml:"teleplot_normalize_values"`
	USBHIDEnabled               bool    `yaml:"usb_hid_enabled"`
	FilterType                  int     `yaml:"filter_type"`
	IIRFilterB                  float32 `yaml:"iir_filter_b"`
	DebounceUS                  uint64  `yaml:"debounce_us"` // microseconds, not milliseconds
	Hysteresis                  float32 `yaml:"hysteresis"`  // 0 disables
	HMAWindowSize               uint64  `yaml:"hma_window_size"`
	PressThreshold              uint64  `yaml:"press_threshold"`   // offset above baseline
	ReleaseThreshold            uint64  `yaml:"release_threshold"` // offset above baseline, below press
	WarmupSamples               uint64  `yaml:"warmup_samples"`    // discarded per sensor at calibration
}

// DefaultTunables returns the factory tunables.
func DefaultTunables() Tunables {
	return Tunables{
		ThresholdFactor:             1.5,
		ThresholdValue:              150,
		ThresholdType:               ThresholdValue,
		ThresholdSamplingDurationUS: 2 * 1000 * 1000,
		SamplingDurationUS:          1000,
		TeleplotReportIntervalUS:    80 * 1000,
		TeleplotNormalizeValues:     true,
		USBHIDEnabled:               true,
		FilterType:                  FilterHMA,
		IIRFilterB:                  stats.DefaultIIRCoefficient,
		DebounceUS:                  0,
		Hysteresis:                  0,
		HMAWindowSize:               16,
		PressThreshold:              100,
		ReleaseThreshold:            80,
		WarmupSamples:               10,
	}
}

// Validate checks ranges and cross-field constraints.
func (t *Tunables) Validate() error {
	switch {
	case t.ThresholdType != ThresholdFactor && t.ThresholdType != ThresholdValue:
		return fmt.Errorf("%w: threshold_type %d", ErrInvalidValue, t.ThresholdType)
	case t.FilterType < FilterMedian || t.FilterType > FilterEHMA:
		return fmt.Errorf("%w: filter_type %d", ErrInvalidValue, t.FilterType)
	case t.ThresholdSamplingDurationUS == 0:
		return fmt.Errorf("%w: threshold_sampling_duration_us must be positive", ErrInvalidValue)
	case t.SamplingDurationUS <= SamplingBufferUS:
		return fmt.Errorf("%w: sampling_duration_us must exceed %d", ErrInvalidValue, SamplingBufferUS)
	case t.TeleplotReportIntervalUS == 0:
		return fmt.Errorf("%w: serial_teleplot_report_interval_us must be positive", ErrInvalidValue)
	case t.IIRFilterB <= 0 || t.IIRFilterB > 1:
		return fmt.Errorf("%w: iir_filter_b %v not in (0, 1]", ErrInvalidValue, t.IIRFilterB)
	case t.HMAWindowSize < 1 || t.HMAWindowSize > filter.MaxWindowSize:
		return fmt.Errorf("%w: hma_window_size %d not in [1, %d]", ErrInvalidValue, t.HMAWindowSize, filter.MaxWindowSize)
	case t.ReleaseThreshold >= t.PressThreshold:
		return fmt.Errorf("%w: release_threshold %d must be below press_threshold %d", ErrInvalidValue, t.ReleaseThreshold, t.PressThreshold)
	case t.Hysteresis < 0:
		return fmt.Errorf("%w: hysteresis %v is negative", ErrInvalidValue, t.Hysteresis)
	}
	return nil
}

// Windowed reports whether the filter type decides once per sampling window.
func (t *Tunables) Windowed() bool {
	return t.FilterType <= FilterIIR
}

// Decision maps a windowed filter type to the stats decision.
func (t *Tunables) Decision() stats.Decision {
	switch t.FilterType {
	case FilterAvg:
		return stats.DecisionMean
	case FilterIIR:
		return stats.DecisionIIR
	}
	return stats.DecisionMedian
}

// CalibrationDuration is how long the baseline is sampled.
func (t *Tunables) CalibrationDuration() time.Duration {
	return time.Duration(t.ThresholdSamplingDurationUS) * time.Microsecond
}

// SamplingWindow is the length of one windowed sampling round, minus the processing buffer.
func (t *Tunables) SamplingWindow() time.Duration {
	return time.Duration(t.SamplingDurationUS-SamplingBufferUS) * time.Microsecond
}

// TeleplotInterval is the minimum time between telemetry reports.
func (t *Tunables) TeleplotInterval() time.Duration {
	return time.Duration(t.TeleplotReportIntervalUS) * time.Microsecond
}

// Debounce is the debounce window; zero disables debouncing.
func (t *Tunables) Debounce() time.Duration {
	return time.Duration(t.DebounceUS) * time.Microsecond
}

// Threshold computes the per-sensor threshold from a calibrated baseline.
func (t *Tunables) Threshold(baseline float32) float32 {
	if t.ThresholdType == ThresholdFactor {
		return baseline * t.ThresholdFactor
	}
	return baseline + t.ThresholdValue
}

func (t *Tunables) ensureDefaults() {
	def := DefaultTunables()

	if t.ThresholdSamplingDurationUS == 0 {
		t.ThresholdSamplingDurationUS = def.ThresholdSamplingDurationUS
	}
	if t.SamplingDurationUS == 0 {
		t.SamplingDurationUS = def.SamplingDurationUS
	}
	if t.TeleplotReportIntervalUS == 0 {
		t.TeleplotReportIntervalUS = def.TeleplotReportIntervalUS
	}
	if t.IIRFilterB == 0 {
		t.IIRFilterB = def.IIRFilterB
	}
	if t.HMAWindowSize == 0 {
		t.HMAWindowSize = def.HMAWindowSize
	}
	if t.PressThreshold == 0 && t.ReleaseThreshold == 0 {
		t.PressThreshold = def.PressThreshold
		t.ReleaseThreshold = def.ReleaseThreshold
	}
}
