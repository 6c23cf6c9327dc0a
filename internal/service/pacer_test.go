package service

import (
	"context"
	"testing"
	"time"
)

func TestPacer_FirstWaitIsFree(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(2*time.Second, clock)

	start := clock.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !clock.Now().Equal(start) {
		t.Errorf("first Wait advanced the clock by %s", clock.Now().Sub(start))
	}
}

func TestPacer_SpacesAttempts(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(2*time.Second, clock)

	for i := 0; i < 4; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
		p.Mark()
	}
	if got := p.Waited(); got != 6*time.Second {
		t.Errorf("Waited = %s, want 6s", got)
	}
}

func TestPacer_DeferOnlyExtends(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(5*time.Second, clock)

	p.Mark()
	p.Defer(time.Second)
	_ = p.Wait(context.Background())
	if got := p.Waited(); got != 5*time.Second {
		t.Errorf("short Defer changed the wait: %s", got)
	}

	p.Mark()
	p.Defer(30 * time.Second)
	_ = p.Wait(context.Background())
	if got := p.Waited(); got != 35*time.Second {
		t.Errorf("Waited = %s, want 35s", got)
	}
}

func TestPacer_MarkKeepsLongerDefer(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(2*time.Second, clock)

	p.Defer(10 * time.Second)
	p.Mark()
	_ = p.Wait(context.Background())
	if got := p.Waited(); got != 10*time.Second {
		t.Errorf("Mark shortened a retry_after deferral: waited %s", got)
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Hour, nil)
	p.Mark()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("Wait should fail on a cancelled context")
	}
}

func TestPacer_CancelInterruptsWait(t *testing.T) {
	p := NewPacer(time.Hour, nil)
	p.Mark()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("Wait should return the context error")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly after cancellation")
	}
}
