// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "math/rand/v2"

// MultiQueue is a concurrent relaxed priority queue built from an array of
// M independent sequential priority queues ([pqArray]), each behind its
// own spinlock-and-cached-minimum guard ([guardedPQ]). Concurrent
// goroutines never contend on a single total order: each operation is
// routed to one or two of the M queues by the MultiQueue's configured
// stick policy, so throughput scales with M instead of collapsing onto
// one lock.
//
// The relaxation is semantic, not just an implementation detail: TryPop
// may return a key that is not the global minimum across every goroutine's
// view, because no operation ever inspects all M queues at once. Spec
// §8's testable properties bound exactly how relaxed — e.g. that a value
// popped is never worse than every element that was concurrently visible
// to the popping thread at some point during the call.
//
// Most callers should acquire a per-goroutine [Handle] via [MultiQueue.GetHandle]
// and call Push/TryPop on it, which is the sticky, high-throughput path.
// MultiQueue's own Push and TryPop methods are the unstuck, handle-free
// path: every call draws fresh random indices, safe to call from any
// number of goroutines with no setup, at the cost of the cache locality a
// Handle's stickiness buys. This mirrors the reference implementation's
// own two-tier API, where a bare MultiQueue supports direct push/try_pop
// and Handle is the opt-in, higher-throughput layer on top.
type MultiQueue[K Ordered, V any] struct {
	array      *pqArray[K, V]
	cmp        sentinelCompare[K]
	stickiness uint64
	seed       uint64
	policy     StickPolicyKind
	permTable  *permutationTable  // non-nil only for StickSwapping
	globalPerm *globalPermutation // non-nil only for StickPermutation
	handles    *handlePool
}

// Build constructs a MultiQueue from a configured [Builder].
//
// Panics if the builder never received a [Builder.Less] comparator or a
// sentinel policy ([Builder.ImplicitSentinel] or [Builder.ExplicitSentinel])
// — both are preconditions for an operation B cannot retroactively satisfy,
// so per spec §7 they panic rather than returning an error.
func Build[K Ordered, V any](b *Builder[K]) *MultiQueue[K, V] {
	if b.opts.less == nil {
		panic("mpq: Builder.Less must be set before Build")
	}
	if b.opts.sentinel == nil {
		panic("mpq: Builder must have a sentinel policy (ImplicitSentinel or ExplicitSentinel)")
	}

	// M is rounded up to a power of two unconditionally, not just for
	// StickPermutation: globalPermutation.at relies on gcd(a,M)=1, which an
	// odd a only guarantees when M is itself a power of two, and rounding
	// uniformly keeps every policy's M derivation in one place.
	m := roundToPow2(b.opts.c * b.opts.numThreads)
	cmp := sentinelCompare[K]{less: b.opts.less, policy: b.opts.sentinel}

	mq := &MultiQueue[K, V]{
		array:      newPQArray[K, V](m, cmp),
		cmp:        cmp,
		stickiness: b.opts.stickiness,
		seed:       b.opts.seed,
		policy:     b.opts.policy,
		handles:    newHandlePool(b.opts.numThreads),
	}
	switch b.opts.policy {
	case StickSwapping:
		mq.permTable = newPermutationTable(m)
	case StickPermutation:
		mq.globalPerm = newGlobalPermutation(b.opts.seed, m)
	}
	return mq
}

// NumQueues returns M, the number of guarded sequential queues backing mq.
func (mq *MultiQueue[K, V]) NumQueues() int { return mq.array.len() }

// GetHandle borrows a [Handle] from mq's handle pool. Returns
// [ErrTooManyHandles] if every handle slot is already on loan; the caller
// must wait for another goroutine to [Handle.Close] one first.
//
// The Handle holds a back-reference to mq (a deliberate cyclic dependency:
// mq owns the pool a Handle's id comes from, and the Handle needs mq to
// reach the guarded queues and, for StickSwapping/StickPermutation, the
// shared tables those policies coordinate through). Go's garbage collector
// handles the cycle without help; the original's version made the same
// choice via a raw back-pointer plus explicit destructor bookkeeping.
func (mq *MultiQueue[K, V]) GetHandle() (Handle[K, V], error) {
	id, err := mq.handles.acquire()
	if err != nil {
		return nil, err
	}
	base := handleBase[K, V]{
		id: id,
		mq: mq,
		rng: newRNG(
			mq.seed^splitmix64(uint64(id)*2+1),
			mq.seed^splitmix64(uint64(id)*2+2),
		),
	}
	switch mq.policy {
	case StickNone:
		return &handleNone[K, V]{handleBase: base}, nil
	case StickRandom:
		return newHandleRandom[K, V](base), nil
	case StickSwapping:
		return newHandleSwapping[K, V](base), nil
	case StickPermutation:
		return newHandlePermutation[K, V](base), nil
	default:
		panic("mpq: unknown stick policy")
	}
}

// Push inserts (key, value) into a uniformly random queue, without
// requiring a [Handle]. Safe to call from any number of goroutines.
func (mq *MultiQueue[K, V]) Push(key K, value V) {
	mq.array.at(rand.IntN(mq.array.len())).push(key, value)
}

// TryPop removes and returns the smaller of two uniformly random queues'
// minimums, without requiring a [Handle]. err is [ErrWouldBlock] if
// neither queue yielded an element on this attempt.
func (mq *MultiQueue[K, V]) TryPop() (key K, value V, err error) {
	m := mq.array.len()
	i := rand.IntN(m)
	j := i
	if m > 1 {
		for j == i {
			j = rand.IntN(m)
		}
	}
	first, second := mq.array.at(i), mq.array.at(j)
	if mq.cmp.compare(second.peekTopKey(), first.peekTopKey()) {
		first, second = second, first
	}
	if k, v, ok := first.tryPop(); ok {
		return k, v, nil
	}
	if k, v, ok := second.tryPop(); ok {
		return k, v, nil
	}
	return key, value, ErrWouldBlock
}
