// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "code.hybscloud.com/atomix"

// pqArray is the fixed-size array of independent [guardedPQ] instances a
// MultiQueue dispatches pushes and pops across. Its length M is
// c*numThreads rounded up to a power of two, with c configured by
// [Builder.QueuesPerThread].
type pqArray[K Ordered, V any] struct {
	queues []*guardedPQ[K, V]
}

func newPQArray[K Ordered, V any](m int, cmp sentinelCompare[K]) *pqArray[K, V] {
	queues := make([]*guardedPQ[K, V], m)
	for i := range queues {
		queues[i] = newGuardedPQ[K, V](cmp)
	}
	return &pqArray[K, V]{queues: queues}
}

func (a *pqArray[K, V]) len() int { return len(a.queues) }

func (a *pqArray[K, V]) at(i int) *guardedPQ[K, V] { return a.queues[i] }

// permutationSlot is one cache-line-sized entry of the [permutationTable]
// shared by [StickSwapping] handles. Padding each slot out to a full cache
// line, rather than padding between struct fields as the teacher's
// pad/padShort pair does, prevents false sharing between adjacent slots in
// the backing array. Grounded on AlignedIndex in the swapping stick
// policy's reference implementation.
type permutationSlot struct {
	index atomix.Uint64
	_     padShort
}

// permutationTable is the shared array of M sticky-index slots that
// [StickSwapping] handles swap entries into and out of (spec invariants
// P1/P2): every slot holds either a valid queue index in [0,M) or the
// reserved transit marker M, and a slot mid-swap is briefly unreadable by
// anyone but the thread performing the swap. A stale index observed via a
// benign ABA on a slot is harmless: indices are bookkeeping with no
// pointer behind them, so acting on a stale one just picks a valid,
// merely suboptimal, queue.
type permutationTable struct {
	slots   []permutationSlot
	transit uint64
}

func newPermutationTable(m int) *permutationTable {
	t := &permutationTable{slots: make([]permutationSlot, m), transit: uint64(m)}
	for i := range t.slots {
		t.slots[i].index.StoreRelaxed(uint64(i))
	}
	return t
}

func (t *permutationTable) size() int { return len(t.slots) }

func (t *permutationTable) load(i int) uint64 {
	return t.slots[i].index.LoadAcquire()
}

// tryClaim marks slot i in transit if it currently holds want, handing the
// caller exclusive rights to repopulate it via release.
func (t *permutationTable) tryClaim(i int, want uint64) bool {
	return t.slots[i].index.CompareAndSwapAcqRel(want, t.transit)
}

func (t *permutationTable) release(i int, value uint64) {
	t.slots[i].index.StoreRelease(value)
}

// globalPermutation is the shared affine map pi(i) = (i*a + b) mod M that
// [StickPermutation] handles derive both sticky indices from. Rather than
// storing a and b directly, which would need a 128-bit atomic update to
// avoid one reader observing a torn (new-a, old-b) pair across a refresh,
// it stores only a version counter and regenerates (a, b) deterministically
// from (seed, version) with [splitmix64] on every read. Refreshing the
// permutation then reduces to incrementing the counter, which is always
// race-free. a is forced odd per the reference implementation's `| 1`, so
// that it shares no factor of two with the power-of-two M sizes where the
// map must be a bijection.
type globalPermutation struct {
	version atomix.Uint64
	seed    uint64
	m       uint64
}

func newGlobalPermutation(seed uint64, m int) *globalPermutation {
	return &globalPermutation{seed: seed, m: uint64(m)}
}

// refresh re-randomizes the permutation's coefficients.
func (p *globalPermutation) refresh() {
	p.version.AddAcqRel(1)
}

func (p *globalPermutation) coefficients() (a, b uint64) {
	v := p.version.LoadAcquire()
	a = splitmix64(p.seed^(v*2+1)) | 1
	b = splitmix64(p.seed ^ (v*2 + 2))
	return a, b
}

// at maps index i through the current permutation.
func (p *globalPermutation) at(i int) int {
	a, b := p.coefficients()
	return int((uint64(i)*a + b) % p.m)
}
