package search

import (
	"fmt"

	"github.com/ivfann/ivfann/internal/distance"
	"github.com/ivfann/ivfann/internal/ivf"
	"github.com/ivfann/ivfann/internal/ivferrors"
)

// Engine runs top-K queries against a built ClusterIndex.
type Engine struct {
	// ProbeFraction is the fraction of clusters scanned per query,
	// p in (0,1]. The number probed is max(1, floor(p*k)).
	ProbeFraction float64
}

// NewEngine returns an Engine configured with the given probe fraction.
func NewEngine(probeFraction float64) *Engine {
	return &Engine{ProbeFraction: probeFraction}
}

// Search returns up to k VectorIds ordered by ascending distance to q.
// The result has fewer than k entries only if the probed posting lists
// together hold fewer than k vectors.
func (e *Engine) Search(ci *ivf.ClusterIndex, q []float32, k int) ([]int32, error) {
	if ci == nil {
		return nil, ivferrors.ErrNotBuilt
	}
	if len(q) != ci.Centroids.D() {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ivferrors.ErrDimensionMismatch, len(q), ci.Centroids.D())
	}
	if k <= 0 {
		return nil, fmt.Errorf("search: k must be positive, got %d", k)
	}

	numClusters := ci.Centroids.N()
	probe := int(e.ProbeFraction * float64(numClusters))
	if probe < 1 {
		probe = 1
	}
	if probe > numClusters {
		probe = numClusters
	}

	centroidHeap := NewBoundedHeap(probe)
	for c := 0; c < numClusters; c++ {
		dist := distance.SqDist(q, ci.Centroids.GetSegment(c))
		centroidHeap.TryAdd(Candidate{ID: int32(c), Dist: dist})
	}
	probed := centroidHeap.Drain()

	resultHeap := NewBoundedHeap(k)
	for _, pc := range probed {
		posting := ci.Postings[pc.ID]
		if posting == nil {
			continue
		}
		for i := 0; i < posting.Size(); i++ {
			vid := posting.Get(i)
			dist := distance.SqDist(q, ci.Vectors.GetSegment(int(vid)))
			resultHeap.TryAdd(Candidate{ID: vid, Dist: dist})
		}
	}

	hits := resultHeap.Drain()
	ids := make([]int32, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids, nil
}
