package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(opts RateLimitOptions) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)}
	l := newRateLimiter(opts)
	l.now = clock.now
	return l, clock
}

func TestRateLimiterWindowCount(t *testing.T) {
	l, clock := newTestLimiter(RateLimitOptions{WindowRequests: 10, Window: time.Minute})

	for i := 0; i < 10; i++ {
		if !l.allow(1) {
			t.Fatalf("hit %d rejected", i+1)
		}
		clock.advance(time.Second)
	}
	if l.allow(1) {
		t.Fatal("11th hit within the window must be rejected")
	}
	if !l.allow(2) {
		t.Fatal("other users keep their own budget")
	}

	clock.advance(time.Minute)
	for i := 0; i < 10; i++ {
		if !l.allow(1) {
			t.Fatalf("hit %d after the window rejected", i+1)
		}
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	l, clock := newTestLimiter(RateLimitOptions{WindowRequests: 10, Window: time.Minute})

	for i := 0; i < 5; i++ {
		l.allow(1)
	}
	clock.advance(50 * time.Second)
	for i := 0; i < 5; i++ {
		if !l.allow(1) {
			t.Fatalf("hit %d at 50s rejected", i+1)
		}
	}
	// the first five leave the window, the last five are still in it
	clock.advance(11 * time.Second)
	for i := 0; i < 5; i++ {
		if !l.allow(1) {
			t.Fatalf("hit %d at 61s rejected", i+1)
		}
	}
	if l.allow(1) {
		t.Fatal("window boundary must not double the budget")
	}
}

func TestRateLimiterRejectedHitsDoNotCount(t *testing.T) {
	l, clock := newTestLimiter(RateLimitOptions{WindowRequests: 2, Window: time.Minute})
	l.allow(1)
	l.allow(1)
	for i := 0; i < 5; i++ {
		clock.advance(10 * time.Second)
		if l.allow(1) {
			t.Fatalf("hit at %ds must be rejected", (i+1)*10)
		}
	}
	clock.advance(10 * time.Second)
	if !l.allow(1) {
		t.Fatal("budget must return once the accepted hits expire")
	}
}

func TestRateLimiterInterval(t *testing.T) {
	l, clock := newTestLimiter(RateLimitOptions{Interval: time.Second})
	if !l.allow(1) {
		t.Fatal("first hit rejected")
	}
	clock.advance(500 * time.Millisecond)
	if l.allow(1) {
		t.Fatal("hit inside the interval must be rejected")
	}
	clock.advance(500 * time.Millisecond)
	if !l.allow(1) {
		t.Fatal("hit after the interval rejected")
	}
}

func TestRateLimitMiddlewareReplies(t *testing.T) {
	h, handled, limited := chain(func(reply tele.HandlerFunc) tele.MiddlewareFunc {
		return RateLimitMiddleware(RateLimitOptions{WindowRequests: 2, Window: time.Minute, OnLimited: reply})
	})
	for i := 0; i < 3; i++ {
		if err := h(newStub(5)); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	if *handled != 2 || *limited != 1 {
		t.Fatalf("handled=%d limited=%d, want 2 and 1", *handled, *limited)
	}
}

func TestRateLimitMiddlewareExclude(t *testing.T) {
	h, handled, limited := chain(func(reply tele.HandlerFunc) tele.MiddlewareFunc {
		return RateLimitMiddleware(RateLimitOptions{
			WindowRequests: 1,
			Window:         time.Minute,
			Exclude:        map[string]struct{}{"callback": {}},
			OnLimited:      reply,
		})
	})
	cb := newStub(5)
	cb.update = tele.Update{Callback: &tele.Callback{Data: "x"}}
	for i := 0; i < 3; i++ {
		_ = h(cb)
	}
	_ = h(newStub(5))
	_ = h(newStub(5))
	if *handled != 4 || *limited != 1 {
		t.Fatalf("handled=%d limited=%d, want 4 and 1", *handled, *limited)
	}
}
