package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMax:      1,
	}
}

// fakeClock lets tests drive the open timeout without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	cb := New(testConfig())
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb.now = clock.Now
	return cb, clock
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker()

	for i := 0; i < 3; i++ {
		if cb.State() != StateClosed {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i)
		}
		if err := cb.Allow(); err != nil {
			t.Fatalf("closed breaker rejected call: %v", err)
		}
		cb.RecordFailure()
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %v", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker must reject with ErrOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb, _ := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("non-consecutive failures must not open the breaker, got %v", cb.State())
	}
}

func TestBreaker_HalfOpenProbeAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe to be allowed after timeout, got %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.State())
	}

	// Only one probe slot.
	if err := cb.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("second concurrent probe must be rejected, got %v", err)
	}
}

func TestBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)

	for i := 0; i < 2; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("probe %d rejected: %v", i, err)
		}
		cb.RecordSuccess()
	}

	if cb.State() != StateClosed {
		t.Errorf("expected closed after %d probe successes, got %v", 2, cb.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)

	if err := cb.Allow(); err != nil {
		t.Fatalf("probe rejected: %v", err)
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("failed probe must reopen the breaker, got %v", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("reopened breaker must reject, got %v", err)
	}
}

func TestBreaker_Do(t *testing.T) {
	cb, _ := newTestBreaker()
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Do(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped call error, got %v", err)
		}
	}

	calls := 0
	err := cb.Do(func() error { calls++; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker must short-circuit Do, got %v", err)
	}
	if calls != 0 {
		t.Errorf("open breaker must not invoke fn, got %d calls", calls)
	}
}

func TestBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker()
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	cb.Reset()

	if cb.State() != StateClosed {
		t.Fatalf("expected closed after reset, got %v", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("reset breaker must allow calls, got %v", err)
	}
}
