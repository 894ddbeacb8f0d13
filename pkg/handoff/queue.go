package handoff

import "sync/atomic"

// StatusQueueSize is the capacity of a StatusQueue.
const StatusQueueSize = 10

// StatusQueue is a bounded queue of status changes. Only the newest status
// matters to the consumer, so Push drops the oldest entry when the queue is full.
type StatusQueue struct {
	ch      chan Status
	dropped atomic.Uint64
}

// NewStatusQueue creates an empty queue.
func NewStatusQueue() *StatusQueue {
	return &StatusQueue{ch: make(chan Status, StatusQueueSize)}
}

// Push adds s without blocking.
func (q *StatusQueue) Push(s Status) {
	for {
		select {
		case q.ch <- s:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Latest drains the queue and returns the newest status, if any was queued.
func (q *StatusQueue) Latest() (Status, bool) {
	var (
		s  Status
		ok bool
	)
	for {
		select {
		case s = <-q.ch:
			ok = true
		default:
			return s, ok
		}
	}
}

// Len returns the number of queued statuses.
func (q *StatusQueue) Len() int {
	return len(q.ch)
}

// Dropped returns how many statuses were discarded by a full queue.
func (q *StatusQueue) Dropped() uint64 {
	return q.dropped.Load()
}
