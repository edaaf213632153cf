// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpq provides MultiQueue, a concurrent relaxed priority queue
// built from an array of independent sequential priority queues.
//
// A single lock-protected priority queue serializes every push and pop
// through one total order, which collapses under contention. MultiQueue
// instead spreads operations across M small guarded queues and lets each
// caller's stick policy decide which one or two queues to touch, trading
// strict ordering for throughput that scales with M.
//
// # Quick Start
//
//	mq := mpq.Build[int, Job](mpq.New[int](runtime.GOMAXPROCS(0)).
//	    Less(func(a, b int) bool { return a < b }).
//	    ImplicitSentinel(math.MaxInt))
//
//	h, err := mq.GetHandle()
//	if err != nil {
//	    // every handle slot is on loan; wait or size the pool larger
//	}
//	defer h.Close()
//
//	h.Push(priority, job)
//
//	key, job, err := h.TryPop()
//	if mpq.IsWouldBlock(err) {
//	    // nothing found this attempt — may or may not be truly empty
//	}
//
// # Stick Policies
//
// [Builder.None], [Builder.Random], [Builder.Swapping], and
// [Builder.Permutation] select how a [Handle] picks among the M queues:
//
//	None:        fresh uniform random index every operation.
//	Random:      two sticky indices, redrawn after Stickiness operations.
//	Swapping:    two sticky slots into a shared permutation table,
//	             exchanged with another slot's entry on expiry.
//	Permutation: two fixed positions mapped through one shared affine
//	             permutation that periodically re-randomizes for everyone.
//
// Random is the default. None gives the best load balance and the worst
// cache locality; the other three trade some balance for handles that keep
// landing on the same, recently-touched queues.
//
// # Handle-free operation
//
// [MultiQueue.Push] and [MultiQueue.TryPop] work without a [Handle], for
// callers that would rather not manage one — at the cost of the locality
// a Handle's stickiness buys, every call there draws fresh random indices.
//
// # Error Handling
//
// TryPop returns [ErrWouldBlock] when no element was found on a given
// attempt. This is not proof the MultiQueue is empty: relaxation means no
// single call inspects every queue. [ErrTooManyHandles] and
// [ErrHandleClosed] are the only other errors this package returns; see
// their doc comments.
//
//	backoff := iox.Backoff{}
//	for {
//	    key, val, err := h.TryPop()
//	    if err == nil {
//	        backoff.Reset()
//	        process(key, val)
//	        continue
//	    }
//	    if !mpq.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Thread Safety
//
// A [Handle] must be used by exactly one goroutine at a time; sharing one
// concurrently is a precondition violation, not a supported race.
// [MultiQueue.GetHandle], [MultiQueue.Push], and [MultiQueue.TryPop] are
// safe to call from any number of goroutines.
//
// # Race Detection
//
// MultiQueue's guards synchronize via acquire/release atomics on separate
// variables (the lock word and the cached minimum key), a pattern Go's
// race detector cannot fully verify. See [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for every atomic field
// except the generic cached-minimum key (which needs the standard
// library's own atomic.Pointer, documented where it's used),
// [code.hybscloud.com/spin] for CPU pause instructions in CAS-retry loops,
// and [code.hybscloud.com/iox] for semantic errors.
package mpq
