// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq_test

import (
	"errors"
	"math"
	"testing"

	"code.hybscloud.com/mpq"
)

func newIntQueue(policy func(*mpq.Builder[int]) *mpq.Builder[int], numThreads int) *mpq.MultiQueue[int, string] {
	b := mpq.New[int](numThreads).
		Less(func(a, b int) bool { return a < b }).
		ImplicitSentinel(math.MaxInt)
	return mpq.Build[int, string](policy(b))
}

func TestHandlePushTryPopRoundTrips(t *testing.T) {
	policies := map[string]func(*mpq.Builder[int]) *mpq.Builder[int]{
		"None":        func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.None() },
		"Random":      func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Random() },
		"Swapping":    func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Swapping() },
		"Permutation": func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Permutation() },
	}

	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			mq := newIntQueue(policy, 4)
			h, err := mq.GetHandle()
			if err != nil {
				t.Fatalf("GetHandle: %v", err)
			}
			defer h.Close()

			const n = 2000
			for i := 0; i < n; i++ {
				if err := h.Push(i, "v"); err != nil {
					t.Fatalf("Push(%d): %v", i, err)
				}
			}

			// ErrWouldBlock does not prove the MultiQueue empty, so keep
			// popping until a long run of consecutive misses.
			got := 0
			for misses := 0; misses < 1000; {
				_, _, err := h.TryPop()
				if mpq.IsWouldBlock(err) {
					misses++
					continue
				}
				if err != nil {
					t.Fatalf("TryPop: %v", err)
				}
				misses = 0
				got++
			}
			if got != n {
				t.Fatalf("popped %d elements, want %d", got, n)
			}
		})
	}
}

func TestTryPopOnEmptyReturnsWouldBlock(t *testing.T) {
	mq := newIntQueue(func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Random() }, 2)
	h, err := mq.GetHandle()
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}
	defer h.Close()

	if _, _, err := h.TryPop(); !errors.Is(err, mpq.ErrWouldBlock) {
		t.Fatalf("TryPop on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestHandleCloseIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	mq := newIntQueue(func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.None() }, 2)
	h, err := mq.GetHandle()
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: got %v, want nil (idempotent)", err)
	}
	if err := h.Push(1, "x"); !errors.Is(err, mpq.ErrHandleClosed) {
		t.Fatalf("Push after Close: got %v, want ErrHandleClosed", err)
	}
	if _, _, err := h.TryPop(); !errors.Is(err, mpq.ErrHandleClosed) {
		t.Fatalf("TryPop after Close: got %v, want ErrHandleClosed", err)
	}
}

func TestGetHandleExhaustionAndRecycling(t *testing.T) {
	mq := newIntQueue(func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Random() }, 2)

	h1, err := mq.GetHandle()
	if err != nil {
		t.Fatalf("GetHandle 1: %v", err)
	}
	h2, err := mq.GetHandle()
	if err != nil {
		t.Fatalf("GetHandle 2: %v", err)
	}
	if _, err := mq.GetHandle(); !errors.Is(err, mpq.ErrTooManyHandles) {
		t.Fatalf("GetHandle 3: got %v, want ErrTooManyHandles", err)
	}

	if err := h1.Close(); err != nil {
		t.Fatalf("Close h1: %v", err)
	}
	h3, err := mq.GetHandle()
	if err != nil {
		t.Fatalf("GetHandle after Close: %v", err)
	}
	_ = h2
	_ = h3
}

func TestMultiQueueDirectPushTryPop(t *testing.T) {
	mq := newIntQueue(func(b *mpq.Builder[int]) *mpq.Builder[int] { return b.Random() }, 4)

	const n = 500
	for i := 0; i < n; i++ {
		mq.Push(i, "v")
	}

	// Each TryPop samples only two queues, so a miss is retried until a
	// long run of consecutive misses.
	got := 0
	for misses := 0; misses < 1000; {
		_, _, err := mq.TryPop()
		if mpq.IsWouldBlock(err) {
			misses++
			continue
		}
		misses = 0
		got++
	}
	if got != n {
		t.Fatalf("direct TryPop drained %d elements, want %d", got, n)
	}
}

// TestNumQueuesRoundsUpToPowerOfTwo exercises the non-power-of-two
// c*numThreads case (4*3=12) that would otherwise leave globalPermutation's
// M non-power-of-two and break pi's bijectivity under StickPermutation.
func TestNumQueuesRoundsUpToPowerOfTwo(t *testing.T) {
	mq := mpq.Build[int, string](mpq.New[int](3).
		Less(func(a, b int) bool { return a < b }).
		ImplicitSentinel(math.MaxInt).
		Permutation())
	if got, want := mq.NumQueues(), 16; got != want {
		t.Fatalf("NumQueues() = %d, want %d (next power of 2 above c*numThreads=12)", got, want)
	}
}

func TestBuildPanicsWithoutComparator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Build did not panic with no Less comparator configured")
		}
	}()
	mpq.Build[int, string](mpq.New[int](1).ImplicitSentinel(math.MaxInt))
}

func TestBuildPanicsWithoutSentinel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Build did not panic with no sentinel policy configured")
		}
	}()
	mpq.Build[int, string](mpq.New[int](1).Less(func(a, b int) bool { return a < b }))
}
