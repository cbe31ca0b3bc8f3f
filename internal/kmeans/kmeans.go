// Package kmeans implements Lloyd's algorithm over a sampled subset of
// vectors.
package kmeans

import (
	"fmt"
	"math/rand"

	"github.com/ivfann/ivfann/internal/distance"
	"github.com/ivfann/ivfann/internal/intlist"
	"github.com/ivfann/ivfann/internal/telemetry"
	"github.com/ivfann/ivfann/internal/vecstore"
)

// Trainer runs Lloyd's algorithm to produce K centroids from a sample of
// a VectorStore's rows.
type Trainer struct {
	K       int
	MaxIter int
	Seed    int64
}

// NewTrainer returns a Trainer configured for k clusters, maxIter Lloyd
// iterations (0 falls back to the spec default of 300), seeded by seed.
func NewTrainer(k, maxIter int, seed int64) *Trainer {
	if maxIter <= 0 {
		maxIter = 300
	}
	return &Trainer{K: k, MaxIter: maxIter, Seed: seed}
}

// Fit trains on the rows of vectors named by sampleIds, returning k
// centroid rows of vectors.D() dimensions each. sampleIds must name at
// least k distinct rows.
func (t *Trainer) Fit(vectors *vecstore.Store, sampleIds *intlist.IntList) ([][]float32, error) {
	m := sampleIds.Size()
	if t.K <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", t.K)
	}
	if m < t.K {
		return nil, fmt.Errorf("kmeans: sample size %d smaller than k=%d", m, t.K)
	}
	d := vectors.D()

	r := rand.New(rand.NewSource(t.Seed))
	perm := r.Perm(m)

	centroids := make([][]float32, t.K)
	for c := 0; c < t.K; c++ {
		id := int(sampleIds.Get(perm[c]))
		centroids[c] = vectors.GetVector(id)
	}

	sampleVecs := make([][]float32, m)
	for i := 0; i < m; i++ {
		id := int(sampleIds.Get(i))
		sampleVecs[i] = vectors.GetSegment(id)
	}

	var prevLabels []int
	labels := make([]int, m)

	for iter := 0; iter < t.MaxIter; iter++ {
		for i, vec := range sampleVecs {
			best := 0
			bestDist := distance.SqDist(vec, centroids[0])
			for c := 1; c < t.K; c++ {
				dist := distance.SqDist(vec, centroids[c])
				if dist < bestDist {
					bestDist = dist
					best = c
				}
			}
			labels[i] = best
		}

		if prevLabels != nil && labelsEqual(labels, prevLabels) {
			telemetry.Debug("kmeans converged", "iteration", iter, "k", t.K)
			break
		}

		sums := make([][]float32, t.K)
		counts := make([]int, t.K)
		for c := range sums {
			sums[c] = make([]float32, d)
		}
		for i, vec := range sampleVecs {
			c := labels[i]
			counts[c]++
			row := sums[c]
			for j := 0; j < d; j++ {
				row[j] += vec[j]
			}
		}

		empty := 0
		for c := 0; c < t.K; c++ {
			if counts[c] == 0 {
				// No sample point picked this cluster this iteration.
				// Leave it at the all-zero vector produced by resetting
				// the accumulator before the sum; a future iteration may
				// pick it back up once other centroids move.
				centroids[c] = make([]float32, d)
				empty++
				continue
			}
			row := sums[c]
			for j := 0; j < d; j++ {
				row[j] /= float32(counts[c])
			}
			centroids[c] = row
		}
		if empty > 0 {
			telemetry.Warn("kmeans empty cluster during update", "iteration", iter, "empty_clusters", empty)
		}

		if prevLabels == nil {
			prevLabels = make([]int, m)
		}
		copy(prevLabels, labels)
	}

	return centroids, nil
}

func labelsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
