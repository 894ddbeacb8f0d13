// Package handoff carries values from the sampling loop to the reporting loop.
//
// Neither side ever blocks on the other: producers overwrite what the consumer
// has not read yet, and consumers only ever see the newest value.
package handoff

import (
	"context"
	"sync/atomic"
)

// Mailbox holds at most one unread value. Put replaces an unread value, so the
// consumer always gets the most recent one.
type Mailbox[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores v without blocking. It reports whether an unread value was discarded.
func (m *Mailbox[T]) Put(v T) (dropped bool) {
	for {
		select {
		case m.ch <- v:
			return dropped
		default:
		}
		select {
		case <-m.ch:
			dropped = true
			m.dropped.Add(1)
		default:
		}
	}
}

// TryTake returns the unread value, if any.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Take waits for a value or for ctx to be done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	select {
	case v := <-m.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// C exposes the slot for use in select statements.
func (m *Mailbox[T]) C() <-chan T {
	return m.ch
}

// Dropped returns how many values were discarded unread.
func (m *Mailbox[T]) Dropped() uint64 {
	return m.dropped.Load()
}
