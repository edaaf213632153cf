// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "code.hybscloud.com/iox"

// handlePermutation implements [StickPermutation]. Each Handle is assigned
// two fixed primary logical positions for its lifetime — the disjoint,
// id-derived virtual range {2*id, 2*id+1} — plus a second "backup"
// position per side, consulted only when the primary position's mapped
// queue is contended. What moves is the shared [globalPermutation] both
// sets of positions are mapped through. The Handle carries a single
// use_count, decremented once per push or pop call regardless of which
// side was used; when it hits zero, it refreshes the one shared
// permutation, which instantly changes the queue indices every other
// Handle's fixed positions resolve to. This spreads reassignment cost
// across handles without any handle needing to renegotiate a slot with
// another, unlike [handleSwapping].
type handlePermutation[K Ordered, V any] struct {
	handleBase[K, V]
	pos      [2]int
	backup   [2]int
	useCount uint64
	pushSide int
}

func newHandlePermutation[K Ordered, V any](base handleBase[K, V]) *handlePermutation[K, V] {
	h := &handlePermutation[K, V]{handleBase: base}
	h.pos[0], h.pos[1] = 2*int(h.id), 2*int(h.id)+1
	h.backup[0], h.backup[1] = h.rng.twoDistinctIndices(h.mq.array.len())
	h.useCount = h.mq.stickiness
	return h
}

func (h *handlePermutation[K, V]) tick() {
	h.useCount--
	if h.useCount == 0 {
		h.mq.globalPerm.refresh()
		h.useCount = h.mq.stickiness
	}
}

// Push tries the primary position's queue first. If it is contended, the
// handle falls back to its backup position's queue instead of blocking
// on a queue another goroutine already holds.
func (h *handlePermutation[K, V]) Push(key K, value V) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	side := h.pushSide
	h.pushSide ^= 1

	if h.useCount == 0 {
		h.mq.globalPerm.refresh()
		h.useCount = h.mq.stickiness
	}

	idx := h.mq.globalPerm.at(h.pos[side])
	if h.mq.array.at(idx).tryPush(key, value) {
		h.useCount--
		return nil
	}

	backupIdx := h.mq.globalPerm.at(h.backup[side])
	h.mq.array.at(backupIdx).push(key, value)
	h.useCount--
	return nil
}

func (h *handlePermutation[K, V]) TryPop() (key K, value V, err error) {
	if err = h.checkOpen(); err != nil {
		return
	}
	if h.useCount == 0 {
		h.mq.globalPerm.refresh()
		h.useCount = h.mq.stickiness
	}

	primary := [2]int{h.mq.globalPerm.at(h.pos[0]), h.mq.globalPerm.at(h.pos[1])}
	first, second := 0, 1
	if h.mq.cmp.compare(h.mq.array.at(primary[1]).peekTopKey(), h.mq.array.at(primary[0]).peekTopKey()) {
		first, second = 1, 0
	}
	if k, v, ok := h.mq.array.at(primary[first]).tryPop(); ok {
		h.tick()
		return k, v, nil
	}
	if k, v, ok := h.mq.array.at(primary[second]).tryPop(); ok {
		h.tick()
		return k, v, nil
	}

	// Both primaries were contended or apparently empty: fall back to the
	// backup index on each side before giving up this round.
	backup := [2]int{h.mq.globalPerm.at(h.backup[0]), h.mq.globalPerm.at(h.backup[1])}
	if k, v, ok := h.mq.array.at(backup[0]).tryPop(); ok {
		h.tick()
		return k, v, nil
	}
	if k, v, ok := h.mq.array.at(backup[1]).tryPop(); ok {
		h.tick()
		return k, v, nil
	}
	// Nothing found: expire the use_count so the next call refreshes the
	// shared permutation and looks at different queues.
	h.useCount = 0
	return key, value, iox.ErrWouldBlock
}

func (h *handlePermutation[K, V]) Close() error { return h.close() }
