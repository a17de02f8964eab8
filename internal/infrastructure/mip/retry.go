package mip

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newFetchBackOff builds the exponential policy used around login and
// fetch calls, bounded by the fetch wall-clock budget rather than an
// attempt count so behavior stays deterministic on slow networks.
func newFetchBackOff(budget time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = budget
	return b
}

// fibonacciBackOff spaces retries at fibonacci intervals (1s, 1s, 2s,
// 3s, 5s, ...) until the wall-clock budget is spent.
type fibonacciBackOff struct {
	budget     time.Duration
	prev, next time.Duration
	start      time.Time
}

func newFibonacciBackOff(budget time.Duration) backoff.BackOff {
	b := &fibonacciBackOff{budget: budget}
	b.Reset()
	return b
}

func (b *fibonacciBackOff) Reset() {
	b.prev = 0
	b.next = time.Second
	b.start = time.Now()
}

func (b *fibonacciBackOff) NextBackOff() time.Duration {
	wait := b.next
	if time.Since(b.start)+wait > b.budget {
		return backoff.Stop
	}
	b.prev, b.next = b.next, b.prev+b.next
	return wait
}
