package handoff

import "time"

// LED is the status indicator.
type LED interface {
	Set(on bool)
}

// Blinker drives an LED from the status queue. It also takes USB bus events,
// which override the sampling status until the next queued status arrives.
type Blinker struct {
	led   LED
	queue *StatusQueue

	status   Status
	interval time.Duration
	start    time.Time
	on       bool
}

// NewBlinker creates a blinker starting in StatusInit.
func NewBlinker(led LED, queue *StatusQueue) *Blinker {
	b := &Blinker{led: led, queue: queue}
	b.set(StatusInit)
	return b
}

// Status returns the status currently shown.
func (b *Blinker) Status() Status {
	return b.status
}

// Tick picks up the newest queued status and toggles the LED when its interval elapsed.
// Call it from the reporting loop.
func (b *Blinker) Tick(now time.Time) {
	if s, ok := b.queue.Latest(); ok {
		b.set(s)
	}

	switch b.interval {
	case 0:
		b.write(false)
		return
	case AlwaysOn:
		b.write(true)
		return
	}

	if b.start.IsZero() {
		b.start = now
	}
	if now.Sub(b.start) < b.interval {
		return
	}
	b.start = b.start.Add(b.interval)
	if now.Sub(b.start) >= b.interval {
		// fell behind by more than a period
		b.start = now
	}
	b.write(!b.on)
}

// OnMount shows that the host enumerated the device.
func (b *Blinker) OnMount() { b.set(StatusMounted) }

// OnUnmount shows that the host is gone.
func (b *Blinker) OnUnmount() { b.set(StatusNotMounted) }

// OnSuspend shows a suspended bus.
func (b *Blinker) OnSuspend() { b.set(StatusSuspended) }

// OnResume shows a resumed bus.
func (b *Blinker) OnResume() { b.set(StatusMounted) }

func (b *Blinker) set(s Status) {
	if s != b.status || b.interval != s.BlinkInterval() {
		b.start = time.Time{}
	}
	b.status = s
	b.interval = s.BlinkInterval()
}

func (b *Blinker) write(on bool) {
	b.on = on
	b.led.Set(on)
}
