package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func transientFail(context.Context) (string, error) {
	return "", NewTransientError(errors.New("503"), 503)
}

func ok(context.Context) (string, error) { return "ok", nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", Threshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		_, _ = Call(context.Background(), b, transientFail)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	_, err := Call(context.Background(), b, func(context.Context) (string, error) {
		t.Error("should not be called while open")
		return "", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 1})
	_, _ = Call(context.Background(), b, func(context.Context) (string, error) {
		return "", errors.New("400 bad request")
	})
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 2})
	_, _ = Call(context.Background(), b, transientFail)
	_, _ = Call(context.Background(), b, ok)
	_, _ = Call(context.Background(), b, transientFail)
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, transientFail)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	// Failed probe reopens.
	_, _ = Call(context.Background(), b, transientFail)
	if b.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %s", b.State())
	}

	now = now.Add(2 * time.Second)
	got, err := Call(context.Background(), b, ok)
	if err != nil || got != "ok" {
		t.Fatalf("probe: got %q, %v", got, err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreaker_SingleProbeInFlight(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }
	_, _ = Call(context.Background(), b, transientFail)
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Call(context.Background(), b, func(context.Context) (string, error) {
			close(started)
			<-release
			return "ok", nil
		})
	}()
	<-started

	_, err := Call(context.Background(), b, ok)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second probe should be rejected, got %v", err)
	}
	close(release)
	<-done
}

func TestCall_NilBreaker(t *testing.T) {
	got, err := Call(context.Background(), nil, ok)
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d: got %s want %s", s, s.String(), want)
		}
	}
}
