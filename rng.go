// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import (
	"math/bits"
	"math/rand/v2"
)

// rng is the per-handle pseudo-random source the stick policies use to pick
// among the M sequential queues. Each [Handle] owns its own instance; rng is
// not safe for concurrent use, mirroring the original's thread-local engine.
type rng struct {
	src *rand.PCG
}

// newRNG seeds a handle-local generator. Callers derive seed1/seed2 from the
// MultiQueue's configured seed mixed with the handle's id, so that two
// handles never draw the same stream even when the MultiQueue seed is fixed
// for reproducibility.
func newRNG(seed1, seed2 uint64) *rng {
	return &rng{src: rand.NewPCG(seed1, seed2)}
}

func (r *rng) next() uint64 {
	return r.src.Uint64()
}

// index returns a value uniformly distributed over [0, n) using Lemire's
// fast range reduction rather than x%n, so that no division executes on the
// hot push/pop path. Grounded on the reduce() helper in the multiqueue
// reference implementation, generalized from 32 to 64 bits.
func (r *rng) index(n int) int {
	if n <= 1 {
		return 0
	}
	return int(fastrange64(r.next(), uint64(n)))
}

// twoDistinctIndices draws two indices in [0,n) guaranteed not to be equal,
// resampling the second draw on collision. n must be at least 2.
func (r *rng) twoDistinctIndices(n int) (int, int) {
	i := r.index(n)
	j := r.index(n)
	for j == i {
		j = r.index(n)
	}
	return i, j
}

// fastrange64 maps x uniformly onto [0, n) by taking the high 64 bits of
// the 128-bit product x*n, avoiding a division entirely.
func fastrange64(x, n uint64) uint64 {
	hi, _ := bits.Mul64(x, n)
	return hi
}

// splitmix64 is a fast, well-mixed single-round output function used to
// derive deterministic pseudo-random values from small integer inputs,
// such as a version counter, without allocating a full PCG stream. It is
// the mixer SplitMix64/PCG family generators seed each other with.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
