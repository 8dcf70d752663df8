package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type (
	// RecordLock is a fair reader/writer admission gate for a single record.
	//
	// It admits up to maxReaders concurrent readers or exactly one writer, never both.
	// Requests are granted in arrival order across both kinds: a request that cannot
	// be admitted right away, or that arrives while others are already waiting, joins
	// the tail of one FIFO queue. Grants are handed out from the head while the head
	// is admissible, so a waiting writer holds back every reader that arrived after it
	// and a waiting reader holds back every later writer.
	//
	// A writer is admitted only when no reader is active and, while active, it owns
	// the whole reader capacity: no read can slip in between its admission and its release.
	//
	// All counters are private and mutated under mu. Waiters block on their own
	// channel, never on mu, so mu is only held for short bookkeeping sections.
	RecordLock struct {
		// queue holds waiting requests, oldest first.
		queue []*lockWaiter
		// maxReaders bounds activeReaders.
		maxReaders int
		// activeReaders is the number of admitted readers.
		activeReaders int
		// writerActive is set while a writer is admitted.
		writerActive bool
		// mu guards every field above.
		mu sync.Mutex
	}

	// lockWaiter is a queued admission request.
	lockWaiter struct {
		// mode is ModeReadable or ModeReadWriteable.
		mode Mode
		// ready is closed once the request has been admitted.
		ready chan struct{}
	}
)

// NewRecordLock returns an unoccupied lock admitting up to maxReaders concurrent readers.
// If maxReaders <= 0, DefaultMaxReaders is used.
func NewRecordLock(maxReaders int) *RecordLock {
	if maxReaders <= 0 {
		maxReaders = DefaultMaxReaders
	}

	return &RecordLock{
		maxReaders: maxReaders,
	}
}

// MaxReaders returns the reader capacity of the lock.
func (l *RecordLock) MaxReaders() int {
	return l.maxReaders
}

// AcquireRead blocks until the caller is admitted as a reader.
func (l *RecordLock) AcquireRead() {
	_ = l.acquire(context.Background(), ModeReadable)
}

// AcquireReadContext is like AcquireRead but gives up when ctx is done.
// On failure the caller holds nothing and the context error is returned.
func (l *RecordLock) AcquireReadContext(ctx context.Context) error {
	return l.acquire(ctx, ModeReadable)
}

// ReleaseRead gives back one reader admission.
// The last reader out lets the next queued request in.
func (l *RecordLock) ReleaseRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releaseLocked(ModeReadable)
	l.grantLocked()
}

// AcquireWrite blocks until the caller is admitted as the only writer.
func (l *RecordLock) AcquireWrite() {
	_ = l.acquire(context.Background(), ModeReadWriteable)
}

// AcquireWriteContext is like AcquireWrite but gives up when ctx is done.
// On failure the caller holds nothing and the context error is returned.
func (l *RecordLock) AcquireWriteContext(ctx context.Context) error {
	return l.acquire(ctx, ModeReadWriteable)
}

// ReleaseWrite ends the writer admission and restores full reader capacity.
func (l *RecordLock) ReleaseWrite() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releaseLocked(ModeReadWriteable)
	l.grantLocked()
}

// CurrentMode reports the live occupancy of the lock.
func (l *RecordLock) CurrentMode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.modeLocked()
}

// Waiting returns the number of queued requests.
func (l *RecordLock) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queue)
}

// acquire admits the caller in the given mode, queuing it behind earlier requests.
func (l *RecordLock) acquire(ctx context.Context, mode Mode) error {
	l.mu.Lock()

	// Only take the fast path when nobody is queued; otherwise we would overtake them.
	if len(l.queue) == 0 && l.admissibleLocked(mode) {
		l.admitLocked(mode)
		l.mu.Unlock()

		return nil
	}

	if err := ctx.Err(); err != nil {
		l.mu.Unlock()

		return err
	}

	waiter := &lockWaiter{
		mode:  mode,
		ready: make(chan struct{}),
	}

	l.queue = append(l.queue, waiter)
	l.mu.Unlock()

	select {
	case <-waiter.ready:
		return nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-waiter.ready:
		// Granted while we were giving up: hand the admission back.
		l.releaseLocked(mode)
	default:
		l.removeWaiterLocked(waiter)
	}

	// Leaving the queue may have unblocked the requests behind us.
	l.grantLocked()

	return ctx.Err()
}

// grantLocked admits queued requests from the head while the head is admissible.
// Caller must hold l.mu.
func (l *RecordLock) grantLocked() {
	for len(l.queue) > 0 {
		head := l.queue[0]
		if !l.admissibleLocked(head.mode) {
			return
		}

		l.admitLocked(head.mode)

		l.queue[0] = nil
		l.queue = l.queue[1:]

		close(head.ready)
	}

	l.queue = nil
}

// admissibleLocked reports whether a request in mode could be admitted now,
// ignoring the queue. Caller must hold l.mu.
func (l *RecordLock) admissibleLocked(mode Mode) bool {
	switch mode {
	case ModeReadable:
		return !l.writerActive && l.activeReaders < l.maxReaders
	case ModeReadWriteable:
		return !l.writerActive && l.activeReaders == 0
	default:
		panic(fmt.Sprintf("store: record lock cannot admit mode %s", mode))
	}
}

// admitLocked records an admission. Caller must hold l.mu and have checked admissibleLocked.
func (l *RecordLock) admitLocked(mode Mode) {
	if mode == ModeReadWriteable {
		l.writerActive = true
	} else {
		l.activeReaders++
	}

	l.assertInvariantsLocked()
}

// releaseLocked undoes one admission in mode. Caller must hold l.mu.
// Releasing something that is not held is a bug in the caller and panics.
func (l *RecordLock) releaseLocked(mode Mode) {
	switch mode {
	case ModeReadable:
		if l.writerActive || l.activeReaders == 0 {
			panic(fmt.Sprintf(
				"store: read release without an active reader (readers=%d writer=%t)",
				l.activeReaders, l.writerActive,
			))
		}

		l.activeReaders--
	case ModeReadWriteable:
		if !l.writerActive {
			panic(fmt.Sprintf("store: write release without an active writer (readers=%d)", l.activeReaders))
		}

		l.writerActive = false
	default:
		panic(fmt.Sprintf("store: record lock cannot release mode %s", mode))
	}

	l.assertInvariantsLocked()
}

// removeWaiterLocked drops waiter from the queue, keeping the order of the rest.
// Caller must hold l.mu.
func (l *RecordLock) removeWaiterLocked(waiter *lockWaiter) {
	idx := slices.Index(l.queue, waiter)
	if idx < 0 {
		return
	}

	l.queue = slices.Delete(l.queue, idx, idx+1)
}

// modeLocked projects the counters onto a Mode. Caller must hold l.mu.
func (l *RecordLock) modeLocked() Mode {
	switch {
	case l.writerActive:
		return ModeReadWriteable
	case l.activeReaders > 0:
		return ModeReadable
	default:
		return ModeClosed
	}
}

// assertInvariantsLocked panics if the reader/writer exclusion invariant is broken.
// Caller must hold l.mu.
func (l *RecordLock) assertInvariantsLocked() {
	if l.activeReaders < 0 || l.activeReaders > l.maxReaders {
		panic(fmt.Sprintf("store: active readers %d outside [0, %d]", l.activeReaders, l.maxReaders))
	}

	if l.writerActive && l.activeReaders != 0 {
		panic(fmt.Sprintf("store: writer admitted alongside %d readers", l.activeReaders))
	}
}
