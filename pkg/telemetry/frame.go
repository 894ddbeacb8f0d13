// Package telemetry reports diagnostic snapshots of the touch pipeline.
//
// Telemetry is observational only: nothing written here feeds back into sampling
// or button decisions.
package telemetry

import (
	"time"

	"github.com/itohio/capdance/pkg/buttons"
	"github.com/itohio/capdance/pkg/pad"
)

// Frame is one telemetry report.
type Frame struct {
	Time time.Time `json:"time"`

	SampleRate float64 `json:"sample_rate,omitempty"` // polling rounds per second
	RateValid  bool    `json:"-"`

	Buttons buttons.Bitmap `json:"-"`
	Order   []pad.Button   `json:"-"`
	Pressed []string       `json:"pressed"`

	Values     []float32 `json:"values"` // per sensor, relative to baseline when normalized
	Thresholds []float32 `json:"thresholds,omitempty"`
	CurSum     float32   `json:"cur_sum"`
	BaseSum    float32   `json:"base_sum"`

	Summary       Summary `json:"summary"`
	SummarySensor int     `json:"summary_sensor"` // sensor index the summary describes
	SummaryValid  bool    `json:"-"`
}

// Sink consumes telemetry frames.
type Sink interface {
	Write(f *Frame) error
}
