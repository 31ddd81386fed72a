package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
)

// CompletionLatch counts down once per suite and opens at zero. Unlike a
// WaitGroup it can be forced open with Drain.
type CompletionLatch struct {
	count atomic.Int64
	done  chan struct{}
	once  sync.Once
}

// NewCompletionLatch creates a latch for count suites. A count of zero or
// less is already open.
func NewCompletionLatch(count int) *CompletionLatch {
	l := &CompletionLatch{done: make(chan struct{})}
	l.count.Store(int64(count))
	if count <= 0 {
		l.open()
	}
	return l
}

func (l *CompletionLatch) open() {
	l.once.Do(func() { close(l.done) })
}

// CountDown decrements the count, opening the latch when it reaches zero.
// The count never goes below zero.
func (l *CompletionLatch) CountDown() {
	for {
		c := l.count.Load()
		if c <= 0 {
			return
		}
		if l.count.CompareAndSwap(c, c-1) {
			if c == 1 {
				l.open()
			}
			return
		}
	}
}

// Drain forces the count to zero and opens the latch
func (l *CompletionLatch) Drain() {
	l.count.Store(0)
	l.open()
}

// Count returns the remaining count
func (l *CompletionLatch) Count() int64 {
	return l.count.Load()
}

// Done returns a channel closed when the latch opens
func (l *CompletionLatch) Done() <-chan struct{} {
	return l.done
}

// Await blocks until the latch opens or ctx is done
func (l *CompletionLatch) Await(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
