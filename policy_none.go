// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "code.hybscloud.com/iox"

// handleNone implements [StickNone]: every push and pop draws a fresh
// uniform random index (or pair of indices), carrying no state across
// operations. It is the baseline every other policy trades a little
// randomness for locality against.
type handleNone[K Ordered, V any] struct {
	handleBase[K, V]
}

func (h *handleNone[K, V]) Push(key K, value V) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	i := h.rng.index(h.mq.array.len())
	h.mq.array.at(i).push(key, value)
	return nil
}

func (h *handleNone[K, V]) TryPop() (key K, value V, err error) {
	if err = h.checkOpen(); err != nil {
		return
	}
	m := h.mq.array.len()
	if m == 1 {
		if k, v, ok := h.mq.array.at(0).tryPop(); ok {
			return k, v, nil
		}
		return key, value, iox.ErrWouldBlock
	}
	i, j := h.rng.twoDistinctIndices(m)
	first, second := h.mq.array.at(i), h.mq.array.at(j)
	if h.mq.cmp.compare(second.peekTopKey(), first.peekTopKey()) {
		first, second = second, first
	}
	if k, v, ok := first.tryPop(); ok {
		return k, v, nil
	}
	if k, v, ok := second.tryPop(); ok {
		return k, v, nil
	}
	return key, value, iox.ErrWouldBlock
}

func (h *handleNone[K, V]) Close() error { return h.close() }
