package sensor

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/pad"
)

// Mock simulates a sensor bank for testing and development.
type Mock struct {
	cfg config.MockConfig

	mu       sync.Mutex
	closed   chan struct{}
	channels map[uint8]*mockChannel
	rng      *rand.Rand
}

type mockChannel struct {
	configured bool
	touched    bool
	reads      int
	stall      chan struct{} // non-nil while reads block
}

// NewMock creates a mocked bank. A nil cfg uses noiseless defaults.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Baseline:   600,
			TouchDelta: 400,
		}
	}

	return &Mock{
		cfg:      *cfg,
		closed:   make(chan struct{}),
		channels: make(map[uint8]*mockChannel),
		rng:      rand.New(rand.NewSource(1)),
	}
}

// Configure registers the channel of s.
func (m *Mock) Configure(s pad.SensorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := m.channel(s.Pin)
	ch.configured = true
	return nil
}

// Arm does nothing beyond checking the channel was configured.
func (m *Mock) Arm(s pad.SensorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.channel(s.Pin).configured {
		return fmt.Errorf("pin %d not configured", s.Pin)
	}
	return nil
}

// Read returns a simulated counter. The first SettleReads reads of each channel
// return SettleValue. Reads block while the channel is stalled.
func (m *Mock) Read(s pad.SensorConfig) (uint16, error) {
	m.mu.Lock()
	ch := m.channel(s.Pin)
	if !ch.configured {
		m.mu.Unlock()
		return 0, fmt.Errorf("pin %d not configured", s.Pin)
	}
	stall := ch.stall
	m.mu.Unlock()

	if stall != nil {
		select {
		case <-stall:
		case <-m.closed:
			return 0, ErrClosed
		}
	}

	if m.cfg.ReadDelay > 0 {
		select {
		case <-time.After(m.cfg.ReadDelay):
		case <-m.closed:
			return 0, ErrClosed
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
		return 0, ErrClosed
	default:
	}

	ch.reads++
	raw := float64(m.cfg.Baseline)
	if ch.reads <= m.cfg.SettleReads {
		raw = float64(m.cfg.SettleValue)
	} else {
		if ch.touched {
			raw += float64(m.cfg.TouchDelta)
		}
		if m.cfg.NoiseLevel > 0 {
			raw += (m.rng.Float64()*2 - 1) * m.cfg.NoiseLevel
		}
	}
	return counterFor(raw), nil
}

// SetTouch presses or releases the pad on pin.
func (m *Mock) SetTouch(pin uint8, touched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channel(pin).touched = touched
}

// Stall makes reads of pin block until Release or Close.
func (m *Mock) Stall(pin uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.channel(pin)
	if ch.stall == nil {
		ch.stall = make(chan struct{})
	}
}

// Release unblocks reads of a stalled pin.
func (m *Mock) Release(pin uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.channel(pin)
	if ch.stall != nil {
		close(ch.stall)
		ch.stall = nil
	}
}

// Reads returns how many reads pin has served.
func (m *Mock) Reads(pin uint8) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel(pin).reads
}

// Close unblocks pending reads; later reads return ErrClosed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	return nil
}

func (m *Mock) channel(pin uint8) *mockChannel {
	ch, ok := m.channels[pin]
	if !ok {
		ch = &mockChannel{}
		m.channels[pin] = ch
	}
	return ch
}

// counterFor is the inverse of Raw, clamped to the counter range.
func counterFor(raw float64) uint16 {
	c := Timeout - int(raw+0.5)
	if raw < 0 {
		c = Timeout - int(raw-0.5)
	}
	if c < 0 {
		return 0
	}
	if c > Timeout {
		return Timeout
	}
	return uint16(c)
}
