package memory

import (
	"testing"
	"time"

	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(policies map[string]ratelimit.Policy) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return New(policies, WithClock(clock.now), WithSweepEvery(0)), clock
}

func TestCheck_AllowsUpToMaxThenDenies(t *testing.T) {
	s, _ := newTestStore(map[string]ratelimit.Policy{
		"payment": {MaxCalls: 3, Window: time.Minute},
	})

	for i := 0; i < 3; i++ {
		dec := s.Check("user-1", "payment")
		if !dec.Allowed {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
		if want := 3 - (i + 1); dec.Remaining != want {
			t.Fatalf("call %d: expected remaining=%d, got %d", i+1, want, dec.Remaining)
		}
	}

	dec := s.Check("user-1", "payment")
	if dec.Allowed {
		t.Fatalf("expected call 4 to be denied")
	}
	if dec.Remaining != 0 {
		t.Fatalf("expected remaining=0 when denied, got %d", dec.Remaining)
	}
}

func TestCheck_WindowResetsAfterExpiry(t *testing.T) {
	s, clock := newTestStore(map[string]ratelimit.Policy{
		"payment": {MaxCalls: 2, Window: time.Minute},
	})

	if !s.Check("k", "payment").Allowed || !s.Check("k", "payment").Allowed {
		t.Fatalf("expected first two calls to be allowed")
	}
	if s.Check("k", "payment").Allowed {
		t.Fatalf("expected third call to be denied")
	}

	// reset happens even from a denied state
	clock.advance(time.Minute)
	dec := s.Check("k", "payment")
	if !dec.Allowed {
		t.Fatalf("expected call after window expiry to be allowed")
	}
	if dec.Remaining != 1 {
		t.Fatalf("expected fresh window remaining=1, got %d", dec.Remaining)
	}
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	s, _ := newTestStore(map[string]ratelimit.Policy{
		"coupon": {MaxCalls: 1, Window: time.Minute},
	})

	if !s.Check("SAVE10", "coupon").Allowed {
		t.Fatalf("expected first key to be allowed")
	}
	if s.Check("SAVE10", "coupon").Allowed {
		t.Fatalf("expected first key to be exhausted")
	}
	if !s.Check("WELCOME5", "coupon").Allowed {
		t.Fatalf("expected second key to have its own counter")
	}
}

func TestCheck_CategoriesAreIndependent(t *testing.T) {
	s, _ := newTestStore(map[string]ratelimit.Policy{
		"payment": {MaxCalls: 1, Window: time.Minute},
		"admin":   {MaxCalls: 1, Window: time.Minute},
	})

	if !s.Check("user-1", "payment").Allowed {
		t.Fatalf("expected payment call to be allowed")
	}
	if !s.Check("user-1", "admin").Allowed {
		t.Fatalf("expected same key under another category to be allowed")
	}
}

func TestCheck_DeniedCallsDoNotIncrement(t *testing.T) {
	s, clock := newTestStore(map[string]ratelimit.Policy{
		"coupon": {MaxCalls: 2, Window: time.Minute},
	})

	s.Check("k", "coupon")
	s.Check("k", "coupon")
	for i := 0; i < 10; i++ {
		if s.Check("k", "coupon").Allowed {
			t.Fatalf("expected denial on excess call %d", i+1)
		}
	}

	// hammering while denied must not push the reset out
	clock.advance(time.Minute)
	if !s.Check("k", "coupon").Allowed {
		t.Fatalf("expected window to reset on schedule despite denied calls")
	}
}

func TestCheck_UnconfiguredCategoryAllows(t *testing.T) {
	s, _ := newTestStore(map[string]ratelimit.Policy{})

	for i := 0; i < 50; i++ {
		if !s.Check("k", "nonexistent").Allowed {
			t.Fatalf("expected unconfigured category to pass through")
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected no entries for unconfigured category, got %d", s.Len())
	}
}

func TestCheck_ResetAtMatchesWindowStart(t *testing.T) {
	s, clock := newTestStore(map[string]ratelimit.Policy{
		"payment": {MaxCalls: 2, Window: time.Minute},
	})

	start := clock.t
	dec := s.Check("k", "payment")
	if !dec.ResetAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected ResetAt=%v, got %v", start.Add(time.Minute), dec.ResetAt)
	}

	// later calls in the same window keep the original reset instant
	clock.advance(10 * time.Second)
	dec = s.Check("k", "payment")
	if !dec.ResetAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected in-window ResetAt=%v, got %v", start.Add(time.Minute), dec.ResetAt)
	}
}

// Coupon brute-force scenario: 5 calls per 60s keyed by the code itself.
func TestCheck_CouponValidationScenario(t *testing.T) {
	s, clock := newTestStore(map[string]ratelimit.Policy{
		"coupon": {MaxCalls: 5, Window: 60_000 * time.Millisecond},
	})

	for i := 0; i < 5; i++ {
		if !s.Check("SAVE10", "coupon").Allowed {
			t.Fatalf("expected validation attempt %d to be allowed", i+1)
		}
		clock.advance(2 * time.Second) // all within the first 10s
	}

	if s.Check("SAVE10", "coupon").Allowed {
		t.Fatalf("expected attempt 6 within the window to be denied")
	}

	clock.advance(60 * time.Second)
	if !s.Check("SAVE10", "coupon").Allowed {
		t.Fatalf("expected attempt after the window elapsed to be allowed")
	}
}

func TestSweep_RemovesExpiredWindows(t *testing.T) {
	s, clock := newTestStore(map[string]ratelimit.Policy{
		"firewall": {MaxCalls: 10, Window: time.Second},
	})

	s.Check("10.0.0.1", "firewall")
	s.Check("10.0.0.2", "firewall")
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}

	clock.advance(2 * time.Second)
	s.Sweep()
	if s.Len() != 0 {
		t.Fatalf("expected expired entries to be swept, got %d", s.Len())
	}
}

func TestCheck_LazySweepBoundsGrowth(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := New(map[string]ratelimit.Policy{
		"firewall": {MaxCalls: 10, Window: time.Second},
	}, WithClock(clock.now), WithSweepEvery(time.Second))

	s.Check("10.0.0.1", "firewall")
	s.Check("10.0.0.2", "firewall")

	clock.advance(3 * time.Second)
	s.Check("10.0.0.3", "firewall") // triggers the lazy sweep

	if s.Len() != 1 {
		t.Fatalf("expected only the fresh entry to survive, got %d", s.Len())
	}
}
