package latches

import (
	"context"
	"sync"
	"time"

	"github.com/emberdb/ember/kv/tx"
)

// Latches serializes transactions whose fingerprint sets overlap. It is the
// only cross-shard mutable structure in the core: every shard thread funnels
// lock acquisition and release through the acquire/release API here, never
// through direct map access.
//
// A latch is per fingerprint, not per key, so two distinct keys may collide
// into one latch. A collision only ever causes spurious contention, never a
// missed conflict.
//
// Deadlock freedom comes from the KeyLockArgs type: its fingerprints are
// always sorted, Acquire walks them in that order, and Release walks them in
// reverse. Any two transactions with overlapping sets therefore attempt
// acquisition in the same relative order and no cyclic wait can form.

type Latches struct {
	mu    sync.Mutex
	locks map[lockKey]*latch
}

// lockKey scopes a fingerprint to its database namespace.
type lockKey struct {
	db tx.DbIndex
	fp tx.LockFp
}

// latch is one held fingerprint and the FIFO queue of waiters behind it.
// A waiter is woken by closing its channel, which also hands it ownership.
type latch struct {
	waiters []chan struct{}
}

// NewLatches creates the lock table. There should be one per store, shared
// between all shard threads.
func NewLatches() *Latches {
	return &Latches{locks: make(map[lockKey]*latch)}
}

// Acquire locks every fingerprint in args, walking the canonical sorted
// order the KeyLockArgs constructor established. A fingerprint already held
// parks the caller on a FIFO wait queue. If ctx expires while waiting, the
// fingerprints acquired so far are released in reverse order and the ctx
// error is returned; the caller is expected to retry the whole transaction.
func (l *Latches) Acquire(ctx context.Context, args tx.KeyLockArgs) error {
	fps := args.Fingerprints()
	for i, fp := range fps {
		if err := l.acquireOne(ctx, args.DbIndex, fp); err != nil {
			l.releaseRange(args.DbIndex, fps[:i])
			return err
		}
	}
	return nil
}

// TryAcquire takes all fingerprints in args without blocking, or takes
// nothing and returns false when any of them is held. Fast path for commands
// whose key index has a single key.
func (l *Latches) TryAcquire(args tx.KeyLockArgs) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	fps := args.Fingerprints()
	for _, fp := range fps {
		if _, held := l.locks[lockKey{args.DbIndex, fp}]; held {
			return false
		}
	}
	for _, fp := range fps {
		l.locks[lockKey{args.DbIndex, fp}] = &latch{}
	}
	return true
}

// Release drops every fingerprint in args in reverse canonical order and
// wakes the first waiter behind each. The fingerprints must be held by a
// single earlier Acquire or TryAcquire with the same args.
func (l *Latches) Release(args tx.KeyLockArgs) {
	l.releaseRange(args.DbIndex, args.Fingerprints())
}

func (l *Latches) acquireOne(ctx context.Context, db tx.DbIndex, fp tx.LockFp) error {
	k := lockKey{db, fp}

	l.mu.Lock()
	holder, held := l.locks[k]
	if !held {
		l.locks[k] = &latch{}
		l.mu.Unlock()
		return nil
	}
	wait := make(chan struct{})
	holder.waiters = append(holder.waiters, wait)
	l.mu.Unlock()

	start := time.Now()
	select {
	case <-wait:
		// The releaser handed the latch over; it is ours now.
		waitCounter.WithLabelValues("ok").Inc()
		waitDuration.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		if !l.cancelWait(k, wait) {
			// Lost the race: the latch was handed to us while we were
			// cancelling. Pass it on so it does not stay held by a
			// transaction that gave up.
			l.releaseOne(k)
		}
		waitCounter.WithLabelValues("timeout").Inc()
		waitDuration.Observe(time.Since(start).Seconds())
		return ctx.Err()
	}
}

// releaseOne frees k or hands it to the first queued waiter.
func (l *Latches) releaseOne(k lockKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	holder, held := l.locks[k]
	if !held {
		panic("latches: releasing a fingerprint that is not held")
	}
	if len(holder.waiters) == 0 {
		delete(l.locks, k)
		return
	}
	next := holder.waiters[0]
	holder.waiters = holder.waiters[1:]
	close(next)
}

// cancelWait removes wait from the queue behind k. It returns false when the
// waiter is no longer queued, which means it was already woken and owns the
// latch.
func (l *Latches) cancelWait(k lockKey, wait chan struct{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	holder, held := l.locks[k]
	if !held {
		return true
	}
	for i, w := range holder.waiters {
		if w == wait {
			holder.waiters = append(holder.waiters[:i], holder.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Latches) releaseRange(db tx.DbIndex, fps []tx.LockFp) {
	for i := len(fps) - 1; i >= 0; i-- {
		l.releaseOne(lockKey{db, fps[i]})
	}
}

// IsHeld reports whether fp is currently latched in db. Test and assertion
// hook; production paths go through Acquire/Release only.
func (l *Latches) IsHeld(db tx.DbIndex, fp tx.LockFp) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.locks[lockKey{db, fp}]
	return held
}
