// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// handlePool is a bounded free list of uint32 handle ids, drawn on
// [MultiQueue.GetHandle] and returned on [Handle.Close]. Go has no
// destructor to make that return automatic the way the original's
// move-only Handle did, so the pool exists to give ids back a home and to
// bound how many handles can be outstanding at once.
//
// It is the teacher's FAA-based MPMC SCQ engine (Nikolaev, DISC 2019),
// adapted wholesale: T fixed to uint32, Enqueue/Dequeue renamed to the
// pool's own release/acquire vocabulary, and the drain/threshold-skip
// machinery dropped since a handle pool has no producer/consumer shutdown
// phase to drain towards — ids are always returned exactly once, by
// whichever handle is closing.
type handlePool struct {
	_        pad
	tail     atomix.Uint64
	_        pad
	head     atomix.Uint64
	_        pad
	buffer   []handlePoolSlot
	capacity uint64
	size     uint64
	mask     uint64
}

type handlePoolSlot struct {
	cycle atomix.Uint64
	id    uint32
	_     [64 - 8 - 4]byte
}

// newHandlePool builds a pool of n recyclable ids, pre-filled with
// 0..n-1, rounding n up to a power of two as the SCQ layout requires.
func newHandlePool(n int) *handlePool {
	if n < 1 {
		n = 1
	}
	cap64 := uint64(roundToPow2(n))
	size := cap64 * 2

	p := &handlePool{
		buffer:   make([]handlePoolSlot, size),
		capacity: cap64,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		p.buffer[i].cycle.StoreRelaxed(i / cap64)
	}
	for id := uint64(0); id < cap64; id++ {
		if err := p.release(uint32(id)); err != nil {
			panic("mpq: unreachable, fresh pool cannot be full")
		}
	}
	return p
}

// release returns id to the pool. Returns [ErrTooManyHandles] only if the
// pool's capacity has somehow already been exceeded, which indicates a
// bug in the caller (releasing an id twice), not ordinary operation.
func (p *handlePool) release(id uint32) error {
	sw := spin.Wait{}
	for {
		tail := p.tail.LoadAcquire()
		head := p.head.LoadAcquire()
		if tail >= head+p.capacity {
			return ErrTooManyHandles
		}

		myTail := p.tail.AddAcqRel(1) - 1
		slot := &p.buffer[myTail&p.mask]
		expectedCycle := myTail / p.capacity

		if slot.cycle.LoadAcquire() == expectedCycle {
			slot.id = id
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}
		sw.Once()
	}
}

// acquire draws an id from the pool. Returns [ErrTooManyHandles] if none
// is available.
func (p *handlePool) acquire() (uint32, error) {
	sw := spin.Wait{}
	for {
		head := p.head.LoadAcquire()
		tail := p.tail.LoadAcquire()
		if head >= tail {
			return 0, ErrTooManyHandles
		}

		myHead := p.head.AddAcqRel(1) - 1
		slot := &p.buffer[myHead&p.mask]
		expectedCycle := myHead/p.capacity + 1

		if slot.cycle.LoadAcquire() == expectedCycle {
			id := slot.id
			nextEnqCycle := (myHead + p.size) / p.capacity
			slot.cycle.StoreRelease(nextEnqCycle)
			return id, nil
		}
		sw.Once()
	}
}
