// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import "unsafe"

// StickPolicyKind selects which of the four stick policies a [MultiQueue]
// uses to pick guarded queues for a push or pop.
type StickPolicyKind int

const (
	// StickNone draws a fresh uniform random index for every operation.
	StickNone StickPolicyKind = iota
	// StickRandom keeps two sticky indices across Stickiness operations,
	// reselecting one of them (alternating by push/pop) on expiry.
	StickRandom
	// StickSwapping keeps two sticky indices into a shared permutation
	// table and swaps the table entries with fresh slots on expiry, so
	// that other handles' assignments drift away from hot indices too.
	StickSwapping
	// StickPermutation derives both indices from a shared affine
	// permutation of [0,M) that is periodically re-randomized.
	StickPermutation
)

// Options configures [MultiQueue] construction.
type Options[K Ordered] struct {
	numThreads int
	c          int
	stickiness uint64
	seed       uint64
	policy     StickPolicyKind
	sentinel   sentinelPolicy[K]
	less       Less[K]
}

// Builder builds a [MultiQueue] with fluent configuration, mirroring the
// queue-algorithm builder this package's ancestor used to pick among SPSC,
// MPSC, SPMC and MPMC: here the axis being picked is the stick policy
// instead of the producer/consumer shape.
//
// Example:
//
//	mq := mpq.Build[int, Job](mpq.New[int](runtime.GOMAXPROCS(0)).
//	    Less(func(a, b int) bool { return a < b }).
//	    ImplicitSentinel(math.MaxInt).
//	    Random())
type Builder[K Ordered] struct {
	opts Options[K]
}

// New creates a Builder sized for numThreads concurrent handles, with
// defaults matching the reference implementation: 4 queues per thread,
// a stickiness window of 8 operations, the Random stick policy, and a
// fixed built-in seed, so handle RNG streams repeat from run to run unless
// [Builder.Seed] sets a different one.
//
// Panics if numThreads < 1.
func New[K Ordered](numThreads int) *Builder[K] {
	if numThreads < 1 {
		panic("mpq: numThreads must be >= 1")
	}
	return &Builder[K]{opts: Options[K]{
		numThreads: numThreads,
		c:          4,
		stickiness: 8,
		seed:       0xda3e39cb94b95bdb,
		policy:     StickRandom,
	}}
}

// Less sets the key comparator. Required: [Build] panics if it was never
// called.
func (b *Builder[K]) Less(less Less[K]) *Builder[K] {
	b.opts.less = less
	return b
}

// ImplicitSentinel designates max as the reserved "no element" key, on the
// understanding that max already compares greater than or equal to every
// key the caller will ever push. Comparisons still check for it, exactly as
// they do for an explicit sentinel.
func (b *Builder[K]) ImplicitSentinel(max K) *Builder[K] {
	b.opts.sentinel = implicitSentinel[K]{max: max}
	return b
}

// ExplicitSentinel designates value as the reserved "no element" key, even
// though it is an otherwise ordinary member of the key domain. Every
// comparison involving a sentinel-aware key must branch to honor it.
func (b *Builder[K]) ExplicitSentinel(value K) *Builder[K] {
	b.opts.sentinel = explicitSentinel[K]{value: value}
	return b
}

// QueuesPerThread sets c, the number of guarded sequential queues to build
// per expected thread. The MultiQueue allocates roundToPow2(c*numThreads)
// queues. StickSwapping and StickPermutation each reserve two queue-index
// slots per handle (2*id, 2*id+1), so c should stay large enough that
// 2*numThreads does not approach the rounded queue count when using either
// policy.
//
// Panics if c < 1.
func (b *Builder[K]) QueuesPerThread(c int) *Builder[K] {
	if c < 1 {
		panic("mpq: c must be >= 1")
	}
	b.opts.c = c
	return b
}

// Stickiness sets how many operations a Handle performs before refreshing
// its sticky assignment: for Random and Swapping, the per-side use_count
// governing index/slot reselection; for Permutation, the single use_count
// governing how often the shared permutation is refreshed. Ignored by
// None, which draws fresh indices on every call.
//
// Panics if n == 0.
func (b *Builder[K]) Stickiness(n uint64) *Builder[K] {
	if n == 0 {
		panic("mpq: stickiness must be >= 1")
	}
	b.opts.stickiness = n
	return b
}

// Seed sets the seed mixed into every handle's RNG stream and, under
// StickPermutation, into the shared permutation. Two MultiQueues built with
// the same seed, policy, and thread count give handles with the same id the
// same sequence of queue selections, though not necessarily the same
// interleaving of concurrent operations. The handle-free [MultiQueue.Push]
// and [MultiQueue.TryPop] draw from the global math/rand/v2 source and do
// not use this seed.
func (b *Builder[K]) Seed(seed uint64) *Builder[K] {
	b.opts.seed = seed
	return b
}

// None selects [StickNone].
func (b *Builder[K]) None() *Builder[K] { b.opts.policy = StickNone; return b }

// Random selects [StickRandom].
func (b *Builder[K]) Random() *Builder[K] { b.opts.policy = StickRandom; return b }

// Swapping selects [StickSwapping].
func (b *Builder[K]) Swapping() *Builder[K] { b.opts.policy = StickSwapping; return b }

// Permutation selects [StickPermutation].
func (b *Builder[K]) Permutation() *Builder[K] { b.opts.policy = StickPermutation; return b }

// roundToPow2 rounds n up to the next power of 2, with a minimum of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill a cache line after an 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill a cache line after a pointer-sized field.
type padPtr [64 - ptrSize]byte
