// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// MultiQueue's guards synchronize via acquire/release atomics on separate
// words (lock and cached minimum), which the race detector cannot verify;
// see RaceEnabled.

package mpq_test

import (
	"math"
	"sync"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/mpq"
)

// TestMultiQueueConcurrentProducersConsumers pushes a known number of
// elements from several goroutines through per-goroutine handles and
// checks that exactly that many come back out, with no duplicates.
func TestMultiQueueConcurrentProducersConsumers(t *testing.T) {
	const numGoroutines = 6
	const perProducer = 2000
	const total = numGoroutines * perProducer

	mq := mpq.Build[int, int](mpq.New[int](numGoroutines*2).
		Less(func(a, b int) bool { return a < b }).
		ImplicitSentinel(math.MaxInt).
		Random())

	var wg sync.WaitGroup
	for p := 0; p < numGoroutines; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			h, err := mq.GetHandle()
			if err != nil {
				t.Errorf("GetHandle: %v", err)
				return
			}
			defer h.Close()
			for i := 0; i < perProducer; i++ {
				if err := h.Push(base*perProducer+i, i); err != nil {
					t.Errorf("Push: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	var seen atomix.Int32
	results := make([]bool, total)
	var mu sync.Mutex

	for c := 0; c < numGoroutines; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := mq.GetHandle()
			if err != nil {
				t.Errorf("GetHandle: %v", err)
				return
			}
			defer h.Close()
			backoff := iox.Backoff{}
			for int(seen.Load()) < total {
				key, _, err := h.TryPop()
				if err != nil {
					if mpq.IsWouldBlock(err) {
						if int(seen.Load()) >= total {
							return
						}
						backoff.Wait()
						continue
					}
					t.Errorf("TryPop: %v", err)
					return
				}
				backoff.Reset()
				mu.Lock()
				dup := results[key]
				results[key] = true
				mu.Unlock()
				if dup {
					t.Errorf("key %d popped more than once", key)
				}
				seen.Add(1)
			}
		}()
	}
	wg.Wait()

	for k, ok := range results {
		if !ok {
			t.Errorf("key %d was never popped", k)
		}
	}
}
