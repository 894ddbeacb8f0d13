package main

import (
	"context"
	"log"
	"time"

	"github.com/itohio/capdance/pkg/buttons"
	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/handoff"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/itohio/capdance/pkg/sampler"
	"github.com/itohio/capdance/pkg/stats"
	"github.com/itohio/capdance/pkg/telemetry"
)

// reportPeriod is how often the reporting loop runs, about one USB frame.
const reportPeriod = time.Millisecond

// reportLoop is the reporting side: status LED, button decisions, keyboard
// reports and telemetry. It never blocks on the sampling loop.
type reportLoop struct {
	layout    *pad.Layout
	store     *config.Store
	driver    *sampler.Driver
	snapshots *handoff.Mailbox[*stats.Snapshot]

	bus       usbBus
	blinker   *handoff.Blinker
	decider   *buttons.WindowDecider
	debouncer *buttons.Debouncer
	hid       *buttons.Reporter
	tele      *telemetry.Reporter

	snap      *stats.Snapshot
	pressed   []bool
	bitmap    buttons.Bitmap
	shown     handoff.Status
	mounted   bool
	suspended bool

	summarySensor int // sensor feeding the telemetry ring
}

func newReportLoop(layout *pad.Layout, store *config.Store, driver *sampler.Driver, status *handoff.StatusQueue,
	snapshots *handoff.Mailbox[*stats.Snapshot], keymap buttons.Keymap, tele *telemetry.Reporter) *reportLoop {
	usb := newLogHID()
	hid := buttons.NewReporter(usb, keymap)
	hid.OnReport(func(b buttons.Bitmap, r buttons.Report) {
		log.Printf("hid: [%s] %v", b.Format(layout.Order()), r)
	})

	return &reportLoop{
		layout:    layout,
		store:     store,
		driver:    driver,
		snapshots: snapshots,
		bus:       usb,
		blinker:   handoff.NewBlinker(&logLED{}, status),
		decider:   buttons.NewWindowDecider(layout.Len()),
		debouncer: buttons.NewDebouncer(time.Now),
		hid:       hid,
		tele:      tele,
		pressed:   make([]bool, layout.Len()),
		shown:     handoff.StatusInit,
	}
}

// Run ticks until ctx is done.
func (l *reportLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(reportPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.tick(now)
		}
	}
}

func (l *reportLoop) tick(now time.Time) {
	t := l.store.Snapshot()

	l.blinker.Tick(now)
	l.busEvents()
	if s := l.blinker.Status(); s != l.shown {
		log.Printf("status: %s", s)
		l.shown = s
	}

	if snap, ok := l.snapshots.TryTake(); ok {
		l.snap = snap
		if t.Windowed() {
			copy(l.pressed, l.decider.Decide(snap, t))
		}
	}
	if !t.Windowed() {
		if bank := l.driver.Filters(); bank != nil {
			l.pressed = bank.PressedStates(l.pressed)
		}
	}

	raw, err := buttons.Derive(l.layout, l.pressed)
	if err != nil {
		log.Printf("buttons: %v", err)
		return
	}
	l.bitmap = l.debouncer.Apply(raw, t.Debounce())

	if _, err := l.hid.Update(l.bitmap, t); err != nil {
		log.Printf("hid: %v", err)
	}

	if _, err := l.tele.Tick(now, t, l.driver.Samples(), func(f *telemetry.Frame) {
		l.fillFrame(f, t)
	}); err != nil {
		log.Printf("telemetry: %v", err)
	}
}

// busEvents forwards USB state changes to the blinker. They show until the
// sampling loop queues its next status.
func (l *reportLoop) busEvents() {
	if m := l.bus.Mounted(); m != l.mounted {
		l.mounted = m
		if m {
			l.blinker.OnMount()
		} else {
			l.blinker.OnUnmount()
		}
	}
	if s := l.bus.Suspended(); s != l.suspended {
		l.suspended = s
		if s {
			l.blinker.OnSuspend()
		} else if l.mounted {
			l.blinker.OnResume()
		}
	}
}

// fillFrame adds per-sensor values. Values are relative to the baseline when
// teleplot_normalize_values is set.
func (l *reportLoop) fillFrame(f *telemetry.Frame, t *config.Tunables) {
	f.Buttons = l.bitmap
	f.SummarySensor = l.summarySensor
	f.Order = append(f.Order, l.layout.Order()...)

	bank := l.driver.Filters()
	if bank == nil {
		return
	}
	for i := 0; i < l.layout.Len(); i++ {
		idx := pad.SensorIndex(i)
		base := bank.Baseline(idx)
		v := bank.Value(idx)
		if t.Windowed() && l.snap != nil {
			if mean, err := l.snap.BySensor[i].MeanFloat(); err == nil {
				v = mean - base
			}
		}
		if !t.TeleplotNormalizeValues {
			v += base
		}
		f.Values = append(f.Values, v)
		f.BaseSum += base

		if l.snap != nil {
			if mean, err := l.snap.BySensor[i].MeanFloat(); err == nil {
				f.CurSum += mean
			}
		}
	}
	if cal := l.driver.Calibration(); cal != nil {
		for i, th := range cal.Thresholds {
			v := float32(th)
			if t.TeleplotNormalizeValues {
				v -= cal.Baselines[i]
			}
			f.Thresholds = append(f.Thresholds, v)
		}
	}
}
