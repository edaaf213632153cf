// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import (
	"testing"
)

func TestGuardedPQCacheTracksTop(t *testing.T) {
	cmp := intCmp()
	g := newGuardedPQ[int, string](cmp)

	if !cmp.isSentinel(g.peekTopKey()) {
		t.Fatalf("new guard: peekTopKey = %d, want sentinel", g.peekTopKey())
	}

	g.push(10, "ten")
	if g.peekTopKey() != 10 {
		t.Fatalf("after push(10): peekTopKey = %d, want 10", g.peekTopKey())
	}

	g.push(3, "three")
	if g.peekTopKey() != 3 {
		t.Fatalf("after push(3): peekTopKey = %d, want 3", g.peekTopKey())
	}

	if k, v, ok := g.tryPop(); !ok || k != 3 || v != "three" {
		t.Fatalf("tryPop: got (%d, %q, %v), want (3, three, true)", k, v, ok)
	}
	if g.peekTopKey() != 10 {
		t.Fatalf("after pop: peekTopKey = %d, want 10", g.peekTopKey())
	}

	if _, _, ok := g.tryPop(); !ok {
		t.Fatalf("tryPop: expected to find the remaining element")
	}
	if !cmp.isSentinel(g.peekTopKey()) {
		t.Fatalf("after draining: peekTopKey = %d, want sentinel", g.peekTopKey())
	}
	if _, _, ok := g.tryPop(); ok {
		t.Fatalf("tryPop on empty guard: got ok=true, want false")
	}
}

func TestGuardedPQTryPopFastPathOnSentinel(t *testing.T) {
	cmp := intCmp()
	g := newGuardedPQ[int, int](cmp)

	// An empty guard must refuse tryPop. The guard is held here, so this
	// checks only that the result is false: a tryPop that skipped the
	// lock-free peek would also fail, at tryLock.
	if !g.tryLock() {
		t.Fatalf("tryLock on idle guard should succeed")
	}
	if _, _, ok := g.tryPop(); ok {
		t.Fatalf("tryPop observed the guard as held yet still succeeded")
	}
	g.unlock()
}
