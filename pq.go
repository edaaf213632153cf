// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

// pqDegree is the branching factor of the sequential priority queue's
// d-ary heap. 8 matches the reference implementation's default Degree.
const pqDegree = 8

// entry pairs a key with the value it orders.
type entry[K Ordered, V any] struct {
	key   K
	value V
}

// sequentialPQ is a degree-8 d-ary min-heap keyed by a sentinel-aware
// comparator. It is the element type of a [pqArray] guarded one-per-slot
// by [guardedPQ], and is not itself safe for concurrent use.
type sequentialPQ[K Ordered, V any] struct {
	data []entry[K, V]
	cmp  sentinelCompare[K]
}

func newSequentialPQ[K Ordered, V any](cmp sentinelCompare[K]) *sequentialPQ[K, V] {
	return &sequentialPQ[K, V]{cmp: cmp}
}

func (h *sequentialPQ[K, V]) empty() bool { return len(h.data) == 0 }

func (h *sequentialPQ[K, V]) len() int { return len(h.data) }

// top returns the minimum key currently held. The caller must check empty
// first; top panics on an empty heap.
func (h *sequentialPQ[K, V]) top() (K, V) {
	e := h.data[0]
	return e.key, e.value
}

func (h *sequentialPQ[K, V]) push(key K, value V) {
	h.data = append(h.data, entry[K, V]{key: key, value: value})
	h.siftUp(len(h.data) - 1)
}

// pop removes and returns the minimum. The caller must check empty first.
func (h *sequentialPQ[K, V]) pop() (K, V) {
	top := h.data[0]
	n := len(h.data)
	if n > 1 {
		h.data[0] = h.data[n-1]
		h.data = h.data[:n-1]
		h.siftDown(0)
	} else {
		h.data = h.data[:0]
	}
	return top.key, top.value
}

func parentIndex(index int) int     { return (index - 1) / pqDegree }
func firstChildIndex(index int) int { return index*pqDegree + 1 }

// currentParent returns the index of the first node that does not yet have
// all of its children present.
func (h *sequentialPQ[K, V]) currentParent() int { return parentIndex(len(h.data)) }

// topChild returns the index of the smallest element of data[first:last]
// that compares less than val, or last if no such element exists.
func (h *sequentialPQ[K, V]) topChild(first, last int, val K) int {
	top := last
	for i := first; i < last; i++ {
		if top == last {
			if h.cmp.compare(h.data[i].key, val) {
				top = i
			}
			continue
		}
		if h.cmp.compare(h.data[i].key, h.data[top].key) {
			top = i
		}
	}
	return top
}

func (h *sequentialPQ[K, V]) siftUp(index int) {
	if index == 0 {
		return
	}
	val := h.data[index]
	p := parentIndex(index)
	for h.cmp.compare(val.key, h.data[p].key) {
		h.data[index] = h.data[p]
		index = p
		if index == 0 {
			break
		}
		p = parentIndex(index)
	}
	h.data[index] = val
}

func (h *sequentialPQ[K, V]) siftDown(index int) {
	val := h.data[index]
	firstNonFull := h.currentParent()
	for index < firstNonFull {
		first := firstChildIndex(index)
		next := h.topChild(first, first+pqDegree, val.key)
		if next == first+pqDegree {
			h.data[index] = val
			return
		}
		h.data[index] = h.data[next]
		index = next
	}
	if index == firstNonFull {
		first := firstChildIndex(index)
		next := h.topChild(first, len(h.data), val.key)
		if next != len(h.data) {
			h.data[index] = h.data[next]
			index = next
		}
	}
	h.data[index] = val
}

// verify reports whether the heap property holds over the whole structure.
// Used by tests only; a production build never calls it on a hot path.
func (h *sequentialPQ[K, V]) verify() bool {
	for i := range h.data {
		first := firstChildIndex(i)
		for j := 0; j < pqDegree; j++ {
			if first+j >= len(h.data) {
				return true
			}
			if h.cmp.compare(h.data[first+j].key, h.data[i].key) {
				return false
			}
		}
	}
	return true
}
