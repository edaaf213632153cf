// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// cachedKey is a single-word atomic cache for a generic key. [atomix] only
// exposes fixed-width scalar atomics (Uint64, Int64, Int32, Bool, Uintptr,
// Uint128), none of which can represent an arbitrary key type parameter, so
// this wraps the standard library's generic [atomic.Pointer] instead. It is
// the one field in this package not built on atomix, named with atomix's
// own Load/StoreAcquire/Release convention so it reads the same at call
// sites.
type cachedKey[K Ordered] struct {
	p atomic.Pointer[K]
}

func (c *cachedKey[K]) loadAcquire() K {
	p := c.p.Load()
	if p == nil {
		var zero K
		return zero
	}
	return *p
}

func (c *cachedKey[K]) storeRelease(k K) {
	c.p.Store(&k)
}

// guardedPQ is a [sequentialPQ] behind a spinlock, with the minimum key
// cached in a separate atomic word so other threads can peek at it without
// acquiring the lock. Invariants (mirroring spec §4.1/I1-I3):
//
//   - the cache holds the sentinel if and only if the heap is empty;
//   - the cache is written only by the lock holder, with release ordering,
//     after the heap mutation that changed the minimum is visible;
//   - the cache is read outside the lock with acquire ordering.
//
// Grounded on the trylock/mins-cache design in the dgryski multiqueue
// reference, generalized from a single global minimum slice to a per-queue
// guard object, and on the teacher's spin/atomix CAS-retry idiom.
type guardedPQ[K Ordered, V any] struct {
	_      pad
	lock   atomix.Uint64
	_      pad
	topKey cachedKey[K]
	_      pad
	pq     *sequentialPQ[K, V]
	cmp    sentinelCompare[K]
}

func newGuardedPQ[K Ordered, V any](cmp sentinelCompare[K]) *guardedPQ[K, V] {
	g := &guardedPQ[K, V]{pq: newSequentialPQ[K, V](cmp), cmp: cmp}
	g.topKey.storeRelease(cmp.sentinelValue())
	return g
}

func (g *guardedPQ[K, V]) tryLock() bool {
	return g.lock.CompareAndSwapAcqRel(0, 1)
}

func (g *guardedPQ[K, V]) unlock() {
	g.lock.StoreRelease(0)
}

// peekTopKey is the lock-free read side of invariant I2: it may be called
// by any thread without acquiring the guard.
func (g *guardedPQ[K, V]) peekTopKey() K {
	return g.topKey.loadAcquire()
}

// tryPush attempts to push without blocking on contention. ok is false if
// another thread currently holds the guard.
func (g *guardedPQ[K, V]) tryPush(key K, value V) (ok bool) {
	if !g.tryLock() {
		return false
	}
	g.pq.push(key, value)
	top, _ := g.pq.top()
	g.topKey.storeRelease(top)
	g.unlock()
	return true
}

// push acquires the guard, spinning across attempts, then pushes.
func (g *guardedPQ[K, V]) push(key K, value V) {
	sw := spin.Wait{}
	for !g.tryLock() {
		sw.Once()
	}
	g.pq.push(key, value)
	top, _ := g.pq.top()
	g.topKey.storeRelease(top)
	g.unlock()
}

// tryPop attempts to pop the minimum without blocking. ok is false both
// when the guard is contended and when the heap is genuinely empty; the
// caller cannot and need not distinguish the two (spec §7, apparent
// emptiness).
func (g *guardedPQ[K, V]) tryPop() (key K, value V, ok bool) {
	if g.cmp.isSentinel(g.peekTopKey()) {
		return key, value, false
	}
	if !g.tryLock() {
		return key, value, false
	}
	defer g.unlock()
	if g.pq.empty() {
		return key, value, false
	}
	key, value = g.pq.pop()
	if g.pq.empty() {
		g.topKey.storeRelease(g.cmp.sentinelValue())
	} else {
		top, _ := g.pq.top()
		g.topKey.storeRelease(top)
	}
	return key, value, true
}
