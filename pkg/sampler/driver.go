// Package sampler runs the sensor polling loop.
//
// The driver moves through INIT, CALIBRATING and RUNNING. While running it polls
// every sensor in rounds, feeds the per-sensor filters and publishes the
// statistics of every sampling window. It is meant to run on its own goroutine
// for the lifetime of the process; a sensor read that never returns stalls it.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/handoff"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/itohio/capdance/pkg/sensor"
	"github.com/itohio/capdance/pkg/stats"
	"github.com/itohio/capdance/pkg/touch"
)

// Phase is the driver state.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseCalibrating
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseCalibrating:
		return "calibrating"
	case PhaseRunning:
		return "running"
	}
	return "unknown"
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithStatus sets the queue that receives status changes.
func WithStatus(q *handoff.StatusQueue) Option {
	return func(d *Driver) { d.status = q }
}

// WithSnapshots sets the mailbox that receives window statistics.
func WithSnapshots(m *handoff.Mailbox[*stats.Snapshot]) Option {
	return func(d *Driver) { d.snapshots = m }
}

// WithTap registers a function called with every polled round while running.
// It runs on the sampling goroutine and must not block or keep round.
func WithTap(fn func(round []int16)) Option {
	return func(d *Driver) { d.tap = fn }
}

// Driver owns the polling loop.
type Driver struct {
	layout *pad.Layout
	poller sensor.Poller
	store  *config.Store

	now       func() time.Time
	status    *handoff.StatusQueue
	snapshots *handoff.Mailbox[*stats.Snapshot]
	tap       func(round []int16)

	phase   atomic.Int32
	samples atomic.Uint64
	windows atomic.Uint64
	cal     atomic.Pointer[Calibration]
	bank    atomic.Pointer[touch.Bank]

	round []int16
}

// New validates the wiring and creates a driver. Nothing is polled until Run.
func New(layout *pad.Layout, poller sensor.Poller, store *config.Store, opts ...Option) (*Driver, error) {
	if layout == nil || poller == nil || store == nil {
		return nil, errors.New("sampler: layout, poller and store are required")
	}
	if err := layout.CheckLen("poller", poller.Len()); err != nil {
		return nil, err
	}

	d := &Driver{
		layout: layout,
		poller: poller,
		store:  store,
		now:    time.Now,
		round:  make([]int16, layout.Len()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Phase returns the current phase.
func (d *Driver) Phase() Phase {
	return Phase(d.phase.Load())
}

// Samples returns the number of completed polling rounds while running.
// It only ever increases.
func (d *Driver) Samples() uint64 {
	return d.samples.Load()
}

// Windows returns the number of completed sampling windows.
func (d *Driver) Windows() uint64 {
	return d.windows.Load()
}

// Calibration returns the calibration result, or nil before RUNNING.
func (d *Driver) Calibration() *Calibration {
	return d.cal.Load()
}

// Filters returns the per-sensor filters, or nil before RUNNING.
func (d *Driver) Filters() *touch.Bank {
	return d.bank.Load()
}

// Run initializes the sensors, calibrates and then samples until ctx is done or
// a sensor read fails. In production ctx is never cancelled. Cancellation is
// observed between rounds, so a blocked read delays it.
func (d *Driver) Run(ctx context.Context) error {
	d.enter(PhaseInit, handoff.StatusSensorsInit)
	if err := d.poller.Init(); err != nil {
		return fmt.Errorf("sampler: init sensors: %w", err)
	}

	d.enter(PhaseCalibrating, handoff.StatusSensorsCalibrating)
	t := d.store.Snapshot()
	cal, err := d.calibrate(ctx, t)
	if err != nil {
		return err
	}
	bank, err := touch.NewBank(d.layout, cal.Baselines, t)
	if err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	d.cal.Store(cal)
	d.bank.Store(bank)
	log.Printf("sampler: calibrated %d sensors, baselines %v", d.layout.Len(), cal.Baselines)

	d.enter(PhaseRunning, handoff.StatusSensorsOK)
	ehma := t.FilterType == config.FilterEHMA
	for {
		t = d.store.Snapshot()
		if (t.FilterType == config.FilterEHMA) != ehma {
			ehma = !ehma
			if bank, err = touch.NewBank(d.layout, cal.Baselines, t); err != nil {
				return fmt.Errorf("sampler: %w", err)
			}
			d.bank.Store(bank)
			log.Printf("sampler: filters rebuilt for filter_type %d", t.FilterType)
		}

		snap, err := d.sampleWindow(ctx, t, cal, bank)
		if err != nil {
			return err
		}
		d.windows.Add(1)
		if d.snapshots != nil {
			d.snapshots.Put(snap)
		}
	}
}

func (d *Driver) enter(p Phase, s handoff.Status) {
	d.phase.Store(int32(p))
	if d.status != nil {
		d.status.Push(s)
	}
	log.Printf("sampler: %s", p)
}

// calibrate polls for the calibration duration. The sample counter is not advanced.
func (d *Driver) calibrate(ctx context.Context, t *config.Tunables) (*Calibration, error) {
	c := newCalibrator(d.layout.Len(), t.WarmupSamples)
	end := d.now().Add(t.CalibrationDuration())
	for d.now().Before(end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.poller.Poll(d.round); err != nil {
			return nil, fmt.Errorf("sampler: calibration: %w", err)
		}
		c.add(d.round)
	}
	cal, err := c.finish(t)
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	return cal, nil
}

// sampleWindow polls for one sampling window. Per-sample filter modes update
// the filters on every round; every mode accumulates window statistics.
func (d *Driver) sampleWindow(ctx context.Context, t *config.Tunables, cal *Calibration, bank *touch.Bank) (*stats.Snapshot, error) {
	snap := &stats.Snapshot{
		Seq:      d.windows.Load() + 1,
		BySensor: make([]stats.RunningStats, d.layout.Len()),
	}
	for i := range snap.BySensor {
		snap.BySensor[i] = stats.New(cal.Thresholds[i], t.IIRFilterB)
	}
	filtering := !t.Windowed()

	end := d.now().Add(t.SamplingWindow())
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.poller.Poll(d.round); err != nil {
			return nil, fmt.Errorf("sampler: %w", err)
		}
		for i, v := range d.round {
			snap.BySensor[i].Add(v)
			if filtering {
				bank.Update(pad.SensorIndex(i), v, t)
			}
		}
		if d.tap != nil {
			d.tap(d.round)
		}
		d.samples.Add(1)

		if !d.now().Before(end) {
			return snap, nil
		}
	}
}
