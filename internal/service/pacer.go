package service

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Pacer spaces consecutive Bot API attempts at least delay apart.
// It is not safe for concurrent use; one run owns it at a time.
type Pacer struct {
	clock  Clock
	delay  time.Duration
	next   time.Time
	waited time.Duration
}

// NewPacer returns a pacer with the given spacing. A nil clock uses wall time.
func NewPacer(delay time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = realClock{}
	}
	return &Pacer{clock: clock, delay: delay}
}

// Wait blocks until the next attempt is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := p.clock.Now()
	if p.next.IsZero() || !now.Before(p.next) {
		return nil
	}
	d := p.next.Sub(now)
	select {
	case <-p.clock.After(d):
		p.waited += d
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mark records that an attempt just finished. It never pulls forward a
// time already pushed out by Defer.
func (p *Pacer) Mark() {
	if t := p.clock.Now().Add(p.delay); t.After(p.next) {
		p.next = t
	}
}

// Defer pushes the next allowed attempt at least d into the future.
func (p *Pacer) Defer(d time.Duration) {
	if t := p.clock.Now().Add(d); t.After(p.next) {
		p.next = t
	}
}

// Waited is the total time spent blocked in Wait.
func (p *Pacer) Waited() time.Duration {
	return p.waited
}
