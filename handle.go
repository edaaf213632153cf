// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

// Handle is a thread-local access point into a [MultiQueue]. Exactly one
// goroutine may use a given Handle at a time; sharing one across goroutines
// concurrently is a precondition violation, not a supported race.
//
// The original implementation's Handle is move-only and returns its
// permutation-table slots to the MultiQueue in its destructor. Go has no
// destructors, so [Handle.Close] is the explicit substitute: callers that
// acquire a Handle must Close it, typically via defer, or its slots are
// never recycled and [MultiQueue.GetHandle] eventually returns
// [ErrTooManyHandles].
type Handle[K Ordered, V any] interface {
	// Push inserts (key, value) into one of the queues this Handle is
	// currently assigned to, per its MultiQueue's stick policy.
	Push(key K, value V) error
	// TryPop removes and returns the smallest key this Handle can see
	// without blocking. err is [ErrWouldBlock] if none was found on this
	// attempt — which, per spec §7, does not prove the MultiQueue is
	// empty.
	TryPop() (key K, value V, err error)
	// Close returns the Handle's resources to its MultiQueue. Further
	// calls to Push or TryPop return [ErrHandleClosed]. Close is
	// idempotent.
	Close() error
}

// handleBase is the state every stick policy's Handle shares: its identity
// in the handle pool, its private RNG stream, the MultiQueue it belongs
// to, and whether it has been closed.
type handleBase[K Ordered, V any] struct {
	id     uint32
	mq     *MultiQueue[K, V]
	rng    *rng
	closed bool
}

func (h *handleBase[K, V]) checkOpen() error {
	if h.closed {
		return ErrHandleClosed
	}
	return nil
}

func (h *handleBase[K, V]) close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.mq.handles.release(h.id)
	return nil
}
