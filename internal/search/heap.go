// Package search implements the two-stage top-K query engine: a centroid
// probe followed by a posting-list scan, each bounded by its own
// max-heap.
package search

import "container/heap"

// Candidate is one entry under consideration during a probe or scan: a
// VectorId (or centroid id) and its distance to the query.
type Candidate struct {
	ID   int32
	Dist float32
}

// candidateHeap is a max-heap keyed by Dist, so the worst candidate sits
// at the root and is cheap to evict. Grounded on the teacher's
// container/heap-based CandidateHeap.
type candidateHeap []Candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].Dist > h[j].Dist }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// BoundedHeap keeps at most Capacity candidates, always the ones with the
// smallest Dist seen so far. Used for both the centroid probe and the
// posting-list scan: an incoming candidate replaces the current worst
// only on a strict improvement; an exact tie changes nothing, so result
// order among ties depends only on arrival order, not on ID.
type BoundedHeap struct {
	h   candidateHeap
	cap int
}

// NewBoundedHeap returns an empty heap that holds at most capacity
// candidates. capacity must be >= 1.
func NewBoundedHeap(capacity int) *BoundedHeap {
	if capacity < 1 {
		capacity = 1
	}
	h := make(candidateHeap, 0, capacity)
	heap.Init(&h)
	return &BoundedHeap{h: h, cap: capacity}
}

// Len returns the number of candidates currently held.
func (b *BoundedHeap) Len() int { return b.h.Len() }

// TryAdd offers a candidate. If the heap has not reached capacity, it is
// always added. Otherwise it is added, evicting the current worst, only
// if its distance is strictly less than the worst held distance.
func (b *BoundedHeap) TryAdd(c Candidate) {
	if b.h.Len() < b.cap {
		heap.Push(&b.h, c)
		return
	}
	if c.Dist < b.h[0].Dist {
		heap.Pop(&b.h)
		heap.Push(&b.h, c)
	}
}

// Drain empties the heap into a slice ordered by ascending distance,
// popping the current worst into the back of the result first so the
// front ends up holding the best candidate. Ties among equal distances
// are ordered by heap arrival order, not by ID.
func (b *BoundedHeap) Drain() []Candidate {
	n := b.h.Len()
	result := make([]Candidate, n)
	for i := n - 1; i >= 0; i-- {
		result[i] = heap.Pop(&b.h).(Candidate)
	}
	return result
}
