// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "code.hybscloud.com/iox"

// handleSwapping implements [StickSwapping]. Unlike [handleRandom], the
// Handle does not hold queue indices directly: it holds two slots into the
// MultiQueue's shared [permutationTable] — the disjoint, id-derived pair
// {2*id, 2*id+1} that invariant P2 reserves exclusively for this Handle —
// and resolves them to queue indices afresh on every push and pop. Each
// slot has its own use-count: Push only wears down pushSide's, a
// successful TryPop wears down both, exactly as [handleRandom]'s do. On
// expiry or on opportunistic acquisition, a slot's table entry is swapped
// with some other slot's entry, so the index this Handle drops becomes
// available near where another handle was already looking rather than
// simply vanishing back into the uniform pool. Grounded on the
// swap_assignment/refresh_pq protocol in the swapping stick policy
// reference implementation.
type handleSwapping[K Ordered, V any] struct {
	handleBase[K, V]
	slot     [2]int
	useCount [2]uint64
	pushSide int
}

func newHandleSwapping[K Ordered, V any](base handleBase[K, V]) *handleSwapping[K, V] {
	h := &handleSwapping[K, V]{handleBase: base}
	h.slot[0], h.slot[1] = 2*int(h.id), 2*int(h.id)+1
	h.useCount[0] = h.mq.stickiness
	h.useCount[1] = h.mq.stickiness
	return h
}

// tickBoth decrements both sides' use-counts, independently redrawing
// whichever expires. A successful pop decrements both counters regardless
// of which side's queue actually yielded the element.
func (h *handleSwapping[K, V]) tickBoth() {
	for side := 0; side < 2; side++ {
		h.useCount[side]--
		if h.useCount[side] == 0 {
			h.expireSwap(side)
			h.useCount[side] = h.mq.stickiness
		}
	}
}

// expireSwap swaps slot[side]'s table entry with a third, randomly drawn
// slot's entry, on ordinary use-count expiry.
func (h *handleSwapping[K, V]) expireSwap(side int) {
	t := h.mq.permTable
	other := h.rng.index(t.size())
	if other == h.slot[side] {
		other = (other + 1) % t.size()
	}
	h.swapToward(side, other)
}

// swapToward exchanges the table entry at h.slot[side] with that of
// slot other, so long as neither is currently mid-swap under another
// handle. If either claim fails, the attempt is abandoned and
// h.slot[side] keeps its current queue index: a future call, whether
// driven by expiry or by opportunistic acquisition, gets another
// chance, so there is no need to retry now.
func (h *handleSwapping[K, V]) swapToward(side, other int) {
	t := h.mq.permTable
	mySlot := h.slot[side]
	if other == mySlot {
		return
	}

	myIdx := t.load(mySlot)
	if myIdx == t.transit || !t.tryClaim(mySlot, myIdx) {
		return
	}
	otherIdx := t.load(other)
	if otherIdx == t.transit || !t.tryClaim(other, otherIdx) {
		t.release(mySlot, myIdx)
		return
	}
	t.release(mySlot, otherIdx)
	t.release(other, myIdx)
}

// randomLiveSlot samples a uniformly random slot of the permutation
// table, resampling past any slot currently holding the transit marker,
// and returns both the slot and the queue index it currently holds.
func (h *handleSwapping[K, V]) randomLiveSlot() (slot, idx int) {
	t := h.mq.permTable
	for {
		s := h.rng.index(t.size())
		v := t.load(s)
		if v != t.transit {
			return s, int(v)
		}
	}
}

// Push tries the nominal slot's queue first. Per spec's opportunistic
// acquisition: if that try_lock fails, rather than blocking on a queue
// another goroutine is holding, the handle samples a uniformly random
// live slot, pushes there instead, and drifts its own slot toward it so
// the handle benefits from having found an uncontended queue.
func (h *handleSwapping[K, V]) Push(key K, value V) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	side := h.pushSide
	h.pushSide ^= 1

	if h.useCount[side] == 0 {
		h.expireSwap(side)
		h.useCount[side] = h.mq.stickiness
	}

	idx := int(h.mq.permTable.load(h.slot[side]))
	if h.mq.array.at(idx).tryPush(key, value) {
		h.useCount[side]--
		return nil
	}

	altSlot, altIdx := h.randomLiveSlot()
	h.mq.array.at(altIdx).push(key, value)
	h.swapToward(side, altSlot)
	h.useCount[side] = h.mq.stickiness
	return nil
}

func (h *handleSwapping[K, V]) TryPop() (key K, value V, err error) {
	if err = h.checkOpen(); err != nil {
		return
	}
	if h.useCount[0] == 0 {
		h.expireSwap(0)
		h.useCount[0] = h.mq.stickiness
	}
	if h.useCount[1] == 0 {
		h.expireSwap(1)
		h.useCount[1] = h.mq.stickiness
	}

	idx := [2]int{
		int(h.mq.permTable.load(h.slot[0])),
		int(h.mq.permTable.load(h.slot[1])),
	}
	first, second := 0, 1
	if h.mq.cmp.compare(h.mq.array.at(idx[1]).peekTopKey(), h.mq.array.at(idx[0]).peekTopKey()) {
		first, second = 1, 0
	}
	if k, v, ok := h.mq.array.at(idx[first]).tryPop(); ok {
		h.tickBoth()
		return k, v, nil
	}
	if k, v, ok := h.mq.array.at(idx[second]).tryPop(); ok {
		h.tickBoth()
		return k, v, nil
	}

	// Both nominal queues were contended or apparently empty: make one
	// opportunistic attempt against a random live queue before giving up
	// this round.
	_, altIdx := h.randomLiveSlot()
	if k, v, ok := h.mq.array.at(altIdx).tryPop(); ok {
		h.tickBoth()
		return k, v, nil
	}
	return key, value, iox.ErrWouldBlock
}

func (h *handleSwapping[K, V]) Close() error { return h.close() }
