package audit

import (
	"sync"
	"time"
)

// breaker stops delivery attempts to a sink that keeps failing. After
// cooldown one attempt is let through; its outcome closes or reopens it.
type breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	open      bool
	openUntil time.Time
}

func newBreaker(threshold int, cooldown time.Duration, now func() time.Time) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: now}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open || !b.now().Before(b.openUntil)
}

// record reports whether this result opened the circuit.
func (b *breaker) record(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.open = false
		return false
	}
	b.failures++
	halfOpen := b.open
	if halfOpen || b.failures >= b.threshold {
		b.open = true
		b.openUntil = b.now().Add(b.cooldown)
		return !halfOpen
	}
	return false
}
