package contactsync

import (
	"context"
	"sync"
	"time"
)

// Pager is what a ScrollTrigger drives, *Accumulator implements it
type Pager interface {
	LoadNext() bool
	Status() Status
}

// DefaultProximity is the sentinel distance in pixels that counts as visible
const DefaultProximity = 200

// ScrollTrigger converts sentinel visibility into LoadNext calls
// Signals that arrive while a fetch is in flight are dropped, not queued
type ScrollTrigger struct {
	pager     Pager
	proximity int

	mu      sync.Mutex
	visible bool
}

// NewScrollTrigger builds a trigger, proximity below zero means the sentinel must be on screen
func NewScrollTrigger(p Pager, proximity int) *ScrollTrigger {
	if p == nil {
		panic("contactsync: nil Pager")
	}
	if proximity < 0 {
		proximity = 0
	}
	return &ScrollTrigger{pager: p, proximity: proximity}
}

// Observe reports how far below the viewport edge the sentinel sits, in pixels
// zero or negative means it is on screen
func (t *ScrollTrigger) Observe(distance int) bool {
	return t.Signal(distance <= t.proximity)
}

// Signal records the sentinel visibility and loads the next page when appropriate
func (t *ScrollTrigger) Signal(visible bool) bool {
	t.mu.Lock()
	t.visible = visible
	t.mu.Unlock()
	if !visible {
		return false
	}
	return t.fire()
}

// Visible reports the last observed visibility
func (t *ScrollTrigger) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Settled re-checks after a load completed, a sentinel still on screen loads the next page
// it does not retry after a failure; that takes a fresh Signal
func (t *ScrollTrigger) Settled() bool {
	if !t.Visible() {
		return false
	}
	if t.pager.Status().Failed {
		return false
	}
	return t.fire()
}

func (t *ScrollTrigger) fire() bool {
	st := t.pager.Status()
	if st.Generation == 0 || !st.Incremental || st.State.Loading() || st.State == StateExhausted {
		return false
	}
	return t.pager.LoadNext()
}

// Watch calls t.Settled whenever acc publishes a view with no fetch in flight
// the returned func stops watching
func Watch[T any](t *ScrollTrigger, acc *Accumulator[T]) func() {
	return acc.Subscribe(func(v View[T]) {
		if v.Loading() || v.LastError != nil {
			return
		}
		t.Settled()
	})
}

// Probe measures the sentinel distance, see ScrollTrigger.Observe
type Probe func() int

// Poll observes probe every interval until ctx is done
// it stands in for a native visibility observer on platforms that only have timers
func Poll(ctx context.Context, t *ScrollTrigger, interval time.Duration, probe Probe) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Observe(probe())
		}
	}
}
