// Package debounce runs keyed, cancellable scheduled tasks. Scheduling a key
// replaces any task for that key that has not fired yet (trailing debounce).
package debounce

import (
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clock"
)

type entry struct {
	timer clock.Timer
	id    uint64
}

type Scheduler struct {
	clock clock.Clock

	mu      sync.Mutex
	pending map[string]entry
	seq     uint64
	stopped bool
}

func New(c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Scheduler{clock: c, pending: make(map[string]entry)}
}

// Schedule runs fn after delay unless the key is rescheduled or cancelled
// first. It reports false once the scheduler is stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	id := s.seq
	timer := s.clock.AfterFunc(delay, func() { s.fire(key, id, fn) })
	s.pending[key] = entry{timer: timer, id: id}
	return true
}

// a timer whose Stop lost the race still checks it is the current entry
func (s *Scheduler) fire(key string, id uint64, fn func()) {
	s.mu.Lock()
	cur, ok := s.pending[key]
	if !ok || cur.id != id {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	fn()
}

// Cancel drops the pending task for key and reports whether there was one.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.pending[key]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.pending, key)
	return true
}

func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending task and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for k, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, k)
	}
}
