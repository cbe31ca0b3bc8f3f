package search

import (
	"testing"

	"github.com/ivfann/ivfann/internal/distance"
	"github.com/ivfann/ivfann/internal/ivf"
	"github.com/ivfann/ivfann/internal/vecstore"
)

func buildIndex(t *testing.T, rows [][]float32, centroids [][]float32) *ivf.ClusterIndex {
	t.Helper()
	d := len(rows[0])
	store, err := vecstore.New(vecstore.OnHeap, d, len(rows))
	if err != nil {
		t.Fatalf("vecstore.New: %v", err)
	}
	for i, row := range rows {
		if err := store.AddVector(i, row); err != nil {
			t.Fatalf("AddVector(%d): %v", i, err)
		}
	}
	ci, err := ivf.Build(store, centroids, vecstore.OnHeap)
	if err != nil {
		t.Fatalf("ivf.Build: %v", err)
	}
	t.Cleanup(func() { ci.Close(); store.Close() })
	return ci
}

// TestTinyANNSanity runs a tiny hand-checkable search: two obvious
// clusters of 2-D points, querying near one of them and confirming the
// single closest point comes back first.
func TestTinyANNSanity(t *testing.T) {
	rows := [][]float32{
		{1, 1}, {1.5, 2}, {3, 4}, {5, 7}, {3.5, 5}, {4.5, 5}, {3.5, 4.5},
	}
	centroids := [][]float32{{1, 1}, {4, 5}}

	ci := buildIndex(t, rows, centroids)
	eng := NewEngine(1.0)

	ids, err := eng.Search(ci, []float32{1.2, 1.5}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d results, want 2", len(ids))
	}
	if ids[0] != 0 {
		t.Errorf("ids[0] = %d, want 0 (closest to query)", ids[0])
	}
	seen := map[int32]bool{ids[0]: true, ids[1]: true}
	if !seen[0] || !seen[1] {
		t.Errorf("expected {0,1}, got %v", ids)
	}
}

func TestSearchNonDecreasingDistance(t *testing.T) {
	rows := make([][]float32, 200)
	for i := range rows {
		rows[i] = []float32{float32(i % 13), float32(i % 7), float32(i % 5)}
	}
	centroids := [][]float32{{0, 0, 0}, {6, 3, 2}, {12, 6, 4}}

	ci := buildIndex(t, rows, centroids)
	eng := NewEngine(1.0)

	q := []float32{4, 2, 1}
	ids, err := eng.Search(ci, q, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	prev := float32(-1)
	for _, id := range ids {
		d := distance.SqDist(q, ci.Vectors.GetSegment(int(id)))
		if d < prev {
			t.Fatalf("result distances not non-decreasing: %v after %v", d, prev)
		}
		prev = d
	}
}

func TestSearchResultSizeBoundedByK(t *testing.T) {
	rows := [][]float32{{0, 0}, {1, 1}, {2, 2}}
	centroids := [][]float32{{0, 0}, {2, 2}}

	ci := buildIndex(t, rows, centroids)
	eng := NewEngine(1.0)

	ids, err := eng.Search(ci, []float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d results, want 3 (fewer than k=10 vectors exist)", len(ids))
	}
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	rows := [][]float32{{0, 0}, {1, 1}}
	centroids := [][]float32{{0, 0}}
	ci := buildIndex(t, rows, centroids)
	eng := NewEngine(1.0)

	if _, err := eng.Search(ci, []float32{0, 0, 0}, 1); err == nil {
		t.Fatal("expected an error for a dimension-mismatched query")
	}
}

func TestBoundedHeapStrictLessThanTieRule(t *testing.T) {
	h := NewBoundedHeap(2)
	h.TryAdd(Candidate{ID: 1, Dist: 5})
	h.TryAdd(Candidate{ID: 2, Dist: 5})
	// Heap is full at {1,5} and {2,5}. An equal-distance candidate must
	// not evict either existing entry.
	h.TryAdd(Candidate{ID: 3, Dist: 5})

	drained := h.Drain()
	if len(drained) != 2 {
		t.Fatalf("got %d candidates, want 2", len(drained))
	}
	ids := map[int32]bool{drained[0].ID: true, drained[1].ID: true}
	if ids[3] {
		t.Error("candidate with distance equal to the current worst must not be admitted")
	}
}

func TestBoundedHeapDrainAscending(t *testing.T) {
	h := NewBoundedHeap(5)
	for _, d := range []float32{9, 1, 7, 3, 5} {
		h.TryAdd(Candidate{ID: int32(d), Dist: d})
	}
	drained := h.Drain()
	for i := 1; i < len(drained); i++ {
		if drained[i].Dist < drained[i-1].Dist {
			t.Fatalf("Drain() not ascending: %v", drained)
		}
	}
}
