package telemetry

import (
	"errors"
	"time"

	"github.com/itohio/capdance/pkg/config"
)

// Reporter emits a frame to every sink once per report interval and estimates
// the polling rate from the sample counter.
type Reporter struct {
	sinks []Sink
	ring  *Ring

	next      time.Time
	lastTime  time.Time
	lastCount uint64
	curCount  uint64
	frame     Frame
}

// NewReporter creates a reporter. ring may be nil.
func NewReporter(ring *Ring, sinks ...Sink) *Reporter {
	return &Reporter{ring: ring, sinks: sinks}
}

// AddSink adds a sink.
func (r *Reporter) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Tick reports when the interval of t has elapsed since the previous report.
// samples is the current sample counter; fill adds the pipeline state to the
// frame. The frame passed to fill is reused between reports.
// The sample rate is only reported once two consecutive reports saw a non-zero counter.
func (r *Reporter) Tick(now time.Time, t *config.Tunables, samples uint64, fill func(f *Frame)) (bool, error) {
	interval := t.TeleplotInterval()
	if r.next.IsZero() {
		r.next = now
	}
	if now.Before(r.next) {
		return false, nil
	}
	r.next = r.next.Add(interval)
	if !now.Before(r.next) {
		// fell behind by more than an interval
		r.next = now.Add(interval)
	}

	elapsed := now.Sub(r.lastTime)
	r.lastCount = r.curCount
	r.curCount = samples

	f := &r.frame
	*f = Frame{
		Time:       now,
		Order:      f.Order[:0],
		Values:     f.Values[:0],
		Thresholds: f.Thresholds[:0],
	}
	if r.curCount > 0 && r.lastCount > 0 && elapsed > 0 {
		f.SampleRate = float64(r.curCount-r.lastCount) / elapsed.Seconds()
		f.RateValid = true
	}
	r.lastTime = now

	if fill != nil {
		fill(f)
	}
	if r.ring != nil {
		f.Summary, f.SummaryValid = r.ring.Summarize()
	}

	var errs []error
	for _, s := range r.sinks {
		if err := s.Write(f); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}
