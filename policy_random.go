// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "code.hybscloud.com/iox"

// handleRandom implements [StickRandom]: the Handle keeps two sticky
// queue indices, each with its own use-count, and reuses a side for up to
// the MultiQueue's configured Stickiness operations on that side before
// redrawing it. Push only wears down pushSide's counter. A successful
// TryPop wears down both counters regardless of which side's queue
// actually yielded the element, matching the reference implementation's
// unconditional "decrement both use_count" on success. Pushes alternate
// between the two sticky indices via pushSide so that one queue does not
// absorb every push between reselections.
type handleRandom[K Ordered, V any] struct {
	handleBase[K, V]
	idx      [2]int
	useCount [2]uint64
	pushSide int
}

func newHandleRandom[K Ordered, V any](base handleBase[K, V]) *handleRandom[K, V] {
	h := &handleRandom[K, V]{handleBase: base}
	h.idx[0], h.idx[1] = h.rng.twoDistinctIndices(h.mq.array.len())
	h.useCount[0] = h.mq.stickiness
	h.useCount[1] = h.mq.stickiness
	return h
}

// redraw picks a fresh index for side, distinct from the other side's
// current index, and resets side's own use-count.
func (h *handleRandom[K, V]) redraw(side int) {
	other := h.idx[1-side]
	n := h.mq.array.len()
	ni := h.rng.index(n)
	if n > 1 {
		for ni == other {
			ni = h.rng.index(n)
		}
	}
	h.idx[side] = ni
	h.useCount[side] = h.mq.stickiness
}

// tickBoth decrements both sides' use-counts, independently redrawing
// whichever expires. A successful pop decrements both counters regardless
// of which side's queue actually yielded the element.
func (h *handleRandom[K, V]) tickBoth() {
	for side := 0; side < 2; side++ {
		h.useCount[side]--
		if h.useCount[side] == 0 {
			h.redraw(side)
		}
	}
}

// Push redraws index[pushSide] if its use-count has already run out or
// if the nominal queue is currently contended, rather than blocking on
// a queue another goroutine is holding: "If use_count[push_side] == 0
// or try_lock(index[push_side]) fails, redraw" is the same action for
// two distinct triggers, not two different ones.
func (h *handleRandom[K, V]) Push(key K, value V) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	side := h.pushSide
	h.pushSide ^= 1

	if h.useCount[side] == 0 {
		h.redraw(side)
	}
	if h.mq.array.at(h.idx[side]).tryPush(key, value) {
		h.useCount[side]--
		return nil
	}
	h.redraw(side)
	h.mq.array.at(h.idx[side]).push(key, value)
	return nil
}

func (h *handleRandom[K, V]) TryPop() (key K, value V, err error) {
	if err = h.checkOpen(); err != nil {
		return
	}
	if h.useCount[0] == 0 {
		h.redraw(0)
	}
	if h.useCount[1] == 0 {
		h.redraw(1)
	}
	first, second := 0, 1
	if h.mq.cmp.compare(h.mq.array.at(h.idx[1]).peekTopKey(), h.mq.array.at(h.idx[0]).peekTopKey()) {
		first, second = 1, 0
	}
	if k, v, ok := h.mq.array.at(h.idx[first]).tryPop(); ok {
		h.tickBoth()
		return k, v, nil
	}
	if k, v, ok := h.mq.array.at(h.idx[second]).tryPop(); ok {
		h.tickBoth()
		return k, v, nil
	}
	// Both sticky queues came up empty or contended: expire both sides so
	// the next TryPop redraws them instead of retrying the same pair.
	h.useCount[0], h.useCount[1] = 0, 0
	return key, value, iox.ErrWouldBlock
}

func (h *handleRandom[K, V]) Close() error { return h.close() }
