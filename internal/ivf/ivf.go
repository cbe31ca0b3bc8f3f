// Package ivf assigns every vector in a VectorStore to its nearest
// centroid and builds the resulting posting lists.
package ivf

import (
	"fmt"
	"math"

	"github.com/ivfann/ivfann/internal/distance"
	"github.com/ivfann/ivfann/internal/intlist"
	"github.com/ivfann/ivfann/internal/telemetry"
	"github.com/ivfann/ivfann/internal/vecstore"
)

// ClusterIndex is the immutable, built index: k centroids, one posting
// list per centroid (nil for an empty/never-populated cluster), and the
// full vector store they were assigned from.
type ClusterIndex struct {
	Centroids *vecstore.Store
	Postings  []*intlist.IntList
	Vectors   *vecstore.Store
}

// Build wraps centroids in a VectorStore of the given kind (pkg/ivfann
// passes vectors' own Kind(), so the two stores match), then performs a full scan assigning every row of vectors to its nearest
// centroid under the ≤-tie rule (later centroid wins on an exact
// distance tie — deliberately different from the heap's strict-< rule
// used in package search).
func Build(vectors *vecstore.Store, centroids [][]float32, kind vecstore.Kind) (*ClusterIndex, error) {
	k := len(centroids)
	if k == 0 {
		return nil, fmt.Errorf("ivf: no centroids to build from")
	}
	d := vectors.D()

	centroidStore, err := vecstore.New(kind, d, k)
	if err != nil {
		return nil, fmt.Errorf("ivf: allocate centroid store: %w", err)
	}
	for c, row := range centroids {
		if err := centroidStore.AddVector(c, row); err != nil {
			centroidStore.Close()
			return nil, fmt.Errorf("ivf: write centroid %d: %w", c, err)
		}
	}

	postings := make([]*intlist.IntList, k)

	n := vectors.N()
	for i := 0; i < n; i++ {
		vec := vectors.GetSegment(i)

		best := -1
		bestDist := float32(math.MaxFloat32)
		for c := 0; c < k; c++ {
			dist := distance.SqDist(vec, centroidStore.GetSegment(c))
			if dist <= bestDist {
				bestDist = dist
				best = c
			}
		}

		if postings[best] == nil {
			postings[best] = intlist.New(0)
		}
		postings[best].Add(int32(i))
	}

	empty := 0
	for _, p := range postings {
		if p == nil || p.Size() == 0 {
			empty++
		}
	}
	telemetry.Info("ivf build complete", "clusters", k, "empty_clusters", empty, "vectors", n)

	return &ClusterIndex{Centroids: centroidStore, Postings: postings, Vectors: vectors}, nil
}

// Stats is a human-readable summary of a ClusterIndex's shape, useful for
// spotting a lopsided partition (a few huge clusters, many empty ones)
// without walking every posting list by hand.
type Stats struct {
	Clusters      int
	EmptyClusters int
	MinClusterSize int
	MaxClusterSize int
	AvgClusterSize float64
	TotalVectors  int
}

// Stat computes a Stats snapshot from a ClusterIndex.
func Stat(ci *ClusterIndex) Stats {
	s := Stats{Clusters: len(ci.Postings), TotalVectors: ci.Vectors.N()}
	if s.Clusters == 0 {
		return s
	}

	min, max, total := -1, 0, 0
	for _, p := range ci.Postings {
		size := 0
		if p != nil {
			size = p.Size()
		}
		if size == 0 {
			s.EmptyClusters++
		}
		if min == -1 || size < min {
			min = size
		}
		if size > max {
			max = size
		}
		total += size
	}
	s.MinClusterSize = min
	s.MaxClusterSize = max
	s.AvgClusterSize = float64(total) / float64(s.Clusters)
	return s
}

// String renders Stats the way a caller would print it to a console.
func (s Stats) String() string {
	return fmt.Sprintf(
		"clusters=%d empty_clusters=%d min_size=%d avg_size=%.2f max_size=%d total_vectors=%d",
		s.Clusters, s.EmptyClusters, s.MinClusterSize, s.AvgClusterSize, s.MaxClusterSize, s.TotalVectors,
	)
}

// Close releases the centroid store's resources. The caller-owned Vectors
// store is not touched; ClusterIndex does not own it.
func (ci *ClusterIndex) Close() error {
	return ci.Centroids.Close()
}
