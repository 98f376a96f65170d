package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_040, 0)} // начало минутного окна
	return New(max, time.Minute, WithClock(clock.now)), clock
}

func TestAllow_WindowBoundary(t *testing.T) {
	l, clock := newTestLimiter(10)

	for i := 0; i < 10; i++ {
		if !l.Allow("stats/overview") {
			t.Fatalf("call %d: expected allowed", i+1)
		}
	}

	if l.Allow("stats/overview") {
		t.Error("11th call in the same window should be rejected")
	}

	clock.advance(time.Minute)

	if !l.Allow("stats/overview") {
		t.Error("first call of the next window should be allowed")
	}
}

func TestAllow_RejectionDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(2)

	l.Allow("recettes")
	l.Allow("recettes")

	for i := 0; i < 5; i++ {
		l.Allow("recettes")
	}

	if got := l.Remaining("recettes"); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}

	key := bucketKey{endpoint: "recettes", window: l.currentWindow()}
	if got := l.counts[key]; got != 2 {
		t.Errorf("rejected calls must not increment the bucket, got count %d", got)
	}
}

func TestAllow_EndpointsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)

	if !l.Allow("a") {
		t.Fatal("expected a allowed")
	}
	if !l.Allow("b") {
		t.Error("b should have its own bucket")
	}
	if l.Allow("a") {
		t.Error("a should be exhausted")
	}
}

func TestAllow_PurgesOldBuckets(t *testing.T) {
	l, clock := newTestLimiter(5)

	l.Allow("a")
	clock.advance(time.Minute)
	l.Allow("a")

	// предыдущее окно сохраняется
	if len(l.counts) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(l.counts))
	}

	clock.advance(2 * time.Minute)
	l.Allow("b")

	if len(l.counts) != 1 {
		t.Errorf("expected stale buckets to be purged, got %d buckets", len(l.counts))
	}
}

func TestRemainingAndResetAt(t *testing.T) {
	l, clock := newTestLimiter(3)

	if got := l.Remaining("x"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	l.Allow("x")
	if got := l.Remaining("x"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}

	want := clock.t.Add(time.Minute)
	if got := l.ResetAt(); !got.Equal(want) {
		t.Errorf("expected reset at %v, got %v", want, got)
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	if l.Limit() != DefaultMaxRequests {
		t.Errorf("expected default limit %d, got %d", DefaultMaxRequests, l.Limit())
	}
	if l.window != DefaultWindow {
		t.Errorf("expected default window %v, got %v", DefaultWindow, l.window)
	}
}
