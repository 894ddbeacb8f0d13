package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store publishes tunables to the sampling and reporting loops.
//
// Readers call Snapshot once per cycle and never block. Writers copy the current
// tunables, modify the copy, validate it and swap the pointer, so a reader never
// sees a half-written set of values. A write becomes visible to the sampling loop
// on its next cycle.
type Store struct {
	cur atomic.Pointer[Tunables]
	mu  sync.Mutex // serializes writers
}

// NewStore validates t and creates a store holding a copy of it.
func NewStore(t Tunables) (*Store, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s := &Store{}
	s.cur.Store(&t)
	return s, nil
}

// Snapshot returns the current tunables. The result must not be modified.
// A new pointer is returned after every successful write, so pointer
// comparison detects changes.
func (s *Store) Snapshot() *Tunables {
	return s.cur.Load()
}

// Update applies fn to a copy of the current tunables and publishes the copy if
// it validates. On error nothing changes.
func (s *Store) Update(fn func(t *Tunables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.cur.Store(&next)
	return nil
}

// Set parses text into the named value.
func (s *Store) Set(name, text string) error {
	v, err := Lookup(name)
	if err != nil {
		return err
	}
	return s.Update(func(t *Tunables) error {
		return v.Set(t, text)
	})
}

// Get formats the named value.
func (s *Store) Get(name string) (string, error) {
	v, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return v.Get(s.Snapshot()), nil
}

// List returns "name: (kind) value" lines for every named value.
func (s *Store) List() []string {
	t := s.Snapshot()
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, fmt.Sprintf("%-40s: (%s) %s", v.Name, v.Kind, v.Get(t)))
	}
	return lines
}

// Replace publishes t wholesale, e.g. after loading a saved config.
func (s *Store) Replace(t Tunables) error {
	return s.Update(func(cur *Tunables) error {
		*cur = t
		return nil
	})
}

// Reset restores the factory tunables.
func (s *Store) Reset() {
	_ = s.Replace(DefaultTunables())
}
