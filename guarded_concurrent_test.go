// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file exercises guardedPQ from multiple goroutines at once. The
// guard's lock and cached minimum are protected by acquire/release
// atomics on separate words, a pattern the race detector cannot verify
// and reports false positives on; see RaceEnabled.

package mpq

import (
	"sync"
	"testing"
)

func TestGuardedPQConcurrentPushPop(t *testing.T) {
	cmp := intCmp()
	g := newGuardedPQ[int, int](cmp)

	const perGoroutine = 500
	const goroutines = 8

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				g.push(base*perGoroutine+j, 0)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	for {
		_, _, ok := g.tryPop()
		if !ok {
			break
		}
		count++
	}
	if count != goroutines*perGoroutine {
		t.Fatalf("drained %d elements, want %d", count, goroutines*perGoroutine)
	}
}
