package main

import (
	"math/rand/v2"
	"time"
)

// pollBackoff doubles the idle wait after each failed batch up to max and
// resets on success. Every wait gets up to a quarter extra of random jitter
// so replicas drift apart.
type pollBackoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func newPollBackoff(base, max time.Duration) *pollBackoff {
	if max < base {
		max = base
	}
	return &pollBackoff{base: base, max: max, current: base}
}

func (b *pollBackoff) failure() time.Duration {
	b.current = min(b.current*2, b.max)
	return jitter(b.current)
}

func (b *pollBackoff) idle() time.Duration {
	b.current = b.base
	return jitter(b.base)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(d/4+1)
}
