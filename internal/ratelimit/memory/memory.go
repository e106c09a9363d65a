package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
)

type entry struct {
	count       int
	windowStart time.Time
	expiresAt   time.Time
}

// Store is a process-local fixed-window counter store. Counters are not
// persisted; a restart clears all windows. Expired entries are swept lazily
// on Check and, optionally, by a janitor goroutine.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	policies   map[string]ratelimit.Policy
	entries    map[string]*entry
	sweepEvery time.Duration
	lastSweep  time.Time
}

type Option func(*Store)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSweepEvery(d time.Duration) Option {
	return func(s *Store) { s.sweepEvery = d }
}

func New(policies map[string]ratelimit.Policy, opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		policies:   policies,
		entries:    make(map[string]*entry),
		sweepEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) Check(key, category string) ratelimit.Decision {
	p, ok := s.policies[category]
	if !ok || p.MaxCalls <= 0 || p.Window <= 0 {
		// unconfigured category: no throttling
		return ratelimit.Decision{Allowed: true}
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep(now)

	k := category + ":" + key
	e, ok := s.entries[k]
	if !ok || now.Sub(e.windowStart) >= p.Window {
		s.entries[k] = &entry{count: 1, windowStart: now, expiresAt: now.Add(p.Window)}
		return ratelimit.Decision{Allowed: true, Remaining: p.MaxCalls - 1, ResetAt: now.Add(p.Window)}
	}

	if e.count < p.MaxCalls {
		e.count++
		return ratelimit.Decision{Allowed: true, Remaining: p.MaxCalls - e.count, ResetAt: e.expiresAt}
	}

	// denied calls do not increment
	return ratelimit.Decision{Allowed: false, Remaining: 0, ResetAt: e.expiresAt}
}

// Len reports the number of live (key, category) entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes entries whose window has expired.
func (s *Store) Sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
}

func (s *Store) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.lastSweep = now
}

func (s *Store) maybeSweep(now time.Time) {
	if s.sweepEvery <= 0 || now.Sub(s.lastSweep) < s.sweepEvery {
		return
	}
	s.sweep(now)
}

// StartJanitor sweeps expired windows periodically until ctx is cancelled.
// Keys are attacker-influenced (coupon codes, client IPs), so the map is
// unbounded without it.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}
	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
