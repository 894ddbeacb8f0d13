package telemetry

import (
	"fmt"
	"math"
	"sync/atomic"
)

// DefaultRingSize is the number of readings kept between two reports.
const DefaultRingSize = 8192

// Ring is a single-producer, single-consumer ring of readings. The sampling
// loop pushes, the reporting loop summarizes. Push never blocks: when the ring
// is full the reading is dropped.
type Ring struct {
	buf  []int16
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	dropped atomic.Uint64
}

// NewRing creates a ring. size must be a power of two >= 2.
func NewRing(size int) (*Ring, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("telemetry: ring size %d is not a power of two >= 2", size)
	}
	return &Ring{buf: make([]int16, size), mask: uint32(size - 1)}, nil
}

// Push appends v. Producer side.
func (r *Ring) Push(v int16) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd >= uint32(len(r.buf)) {
		r.dropped.Add(1)
		return false
	}
	r.buf[wr&r.mask] = v
	r.wr.Store(wr + 1)
	return true
}

// Available returns the number of unread readings.
func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Dropped returns how many readings did not fit.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Summary describes the readings pushed since the previous summary.
type Summary struct {
	Min   int16   `json:"min"`
	Max   int16   `json:"max"`
	Mean  float32 `json:"mean"`
	Count int     `json:"count"`
	Sum   int64   `json:"sum"`
}

// Summarize consumes every unread reading. ok is false when there were none.
// Consumer side.
func (r *Ring) Summarize() (s Summary, ok bool) {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if rd == wr {
		return Summary{}, false
	}

	s.Min = math.MaxInt16
	s.Max = math.MinInt16
	for i := rd; i != wr; i++ {
		v := r.buf[i&r.mask]
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		s.Sum += int64(v)
		s.Count++
	}
	s.Mean = float32(float64(s.Sum) / float64(s.Count))
	r.rd.Store(wr)
	return s, true
}
