// Package ivfann is the public surface of the library: Index.Build,
// Index.Search, Index.Write, Read and Index.Stats.
package ivfann

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ivfann/ivfann/internal/distance"
	"github.com/ivfann/ivfann/internal/indexio"
	"github.com/ivfann/ivfann/internal/ivf"
	"github.com/ivfann/ivfann/internal/ivfconfig"
	"github.com/ivfann/ivfann/internal/ivferrors"
	"github.com/ivfann/ivfann/internal/kmeans"
	"github.com/ivfann/ivfann/internal/sampler"
	"github.com/ivfann/ivfann/internal/search"
	"github.com/ivfann/ivfann/internal/telemetry"
	"github.com/ivfann/ivfann/internal/vecstore"
)

// Config is re-exported so callers never need to import an internal
// package to construct one.
type Config = ivfconfig.Config

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() *Config {
	return ivfconfig.Default()
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	return ivfconfig.FromFile(path)
}

// Index is a built or loaded IVF index: read-only once construction
// returns, safe for concurrent readers, never for a concurrent writer.
type Index struct {
	mu      sync.RWMutex
	cfg     *Config
	cluster *ivf.ClusterIndex
	engine  *search.Engine
	metrics *telemetry.Metrics
	built   bool
}

// New returns an unbuilt Index configured by cfg. A nil cfg falls back to
// DefaultConfig(). The returned Index is not usable until Build or Read
// succeeds.
func New(cfg *Config) *Index {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Index{
		cfg:     cfg,
		engine:  search.NewEngine(cfg.ProbeFraction),
		metrics: telemetry.NewMetrics(prometheus.NewRegistry()),
	}
}

// Build trains centroids on a sampled subset of vectors' rows, assigns
// every row to its nearest centroid, and freezes the result as this
// Index's live state. vectors becomes owned by the Index: its lifetime is
// now tied to Index.Close.
//
// Build is the only construction path: sample, train, partition. A
// second call on an already built Index returns an error.
func (idx *Index) Build(vectors *vecstore.Store) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.built {
		return fmt.Errorf("ivfann: index already built")
	}

	start := time.Now()

	n, d := vectors.N(), vectors.D()
	k := numClusters(n)
	sampleSize := int(idx.cfg.SampleFraction * float64(n))
	if sampleSize < k {
		sampleSize = k
	}

	sampleIds := sampler.Sample(n, sampleSize, idx.cfg.Seed)

	trainer := kmeans.NewTrainer(k, idx.cfg.KMeansIters, idx.cfg.Seed)
	centroids, err := trainer.Fit(vectors, sampleIds)
	if err != nil {
		return fmt.Errorf("ivfann: train centroids: %w", err)
	}

	cluster, err := ivf.Build(vectors, centroids, vectors.Kind())
	if err != nil {
		return fmt.Errorf("ivfann: partition vectors: %w", err)
	}

	idx.cluster = cluster
	idx.built = true

	elapsed := time.Since(start)
	idx.metrics.BuildDuration.Observe(elapsed.Seconds())
	stat := ivf.Stat(cluster)
	idx.metrics.ClustersTotal.Set(float64(stat.Clusters))
	idx.metrics.EmptyClusters.Set(float64(stat.EmptyClusters))
	idx.metrics.VectorsIndexed.Set(float64(stat.TotalVectors))
	telemetry.Info("index build finished", "d", d, "n", n, "k", k, "elapsed", elapsed.String())

	if idx.cfg.Debug {
		dumpCentroidDistances(cluster)
	}

	return nil
}

// Search returns up to k VectorIds ordered by ascending distance to q.
func (idx *Index) Search(q []float32, k int) ([]int32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.built {
		return nil, ivferrors.ErrNotBuilt
	}

	start := time.Now()
	ids, err := idx.engine.Search(idx.cluster, q, k)
	idx.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	return ids, err
}

// Write persists the Index to baseName+".clus" and baseName+".vec".
func (idx *Index) Write(baseName string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.built {
		return ivferrors.ErrNotBuilt
	}
	return indexio.Write(idx.cluster, baseName)
}

// Read loads an Index previously persisted by Write. The returned Index is
// immediately usable for Search; cfg controls ProbeFraction and the
// storage kind used to materialize the loaded vectors and centroids.
func Read(baseName string, cfg *Config) (*Index, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cluster, err := indexio.Read(baseName, cfg.StorageKind())
	if err != nil {
		return nil, err
	}
	return &Index{
		cfg:     cfg,
		cluster: cluster,
		engine:  search.NewEngine(cfg.ProbeFraction),
		metrics: telemetry.NewMetrics(prometheus.NewRegistry()),
		built:   true,
	}, nil
}

// Stats renders a human-readable summary of the built index's shape.
func (idx *Index) Stats() (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.built {
		return "", ivferrors.ErrNotBuilt
	}
	return ivf.Stat(idx.cluster).String(), nil
}

// Close releases the Index's off-heap resources: the centroid store it
// owns outright, and the vector store handed to Build or materialized by
// Read.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.cluster == nil {
		return nil
	}
	if err := idx.cluster.Vectors.Close(); err != nil {
		return err
	}
	return idx.cluster.Close()
}

// numClusters picks k = ceil(sqrt(n)), clamped to at least 1: the usual
// rule of thumb for cluster count in an IVF index, balancing posting-list
// length against the cost of the centroid probe. The trainer itself
// doesn't enforce any particular k.
func numClusters(n int) int {
	k := isqrt(n)
	if k*k < n {
		k++
	}
	if k < 1 {
		k = 1
	}
	return k
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	for x*x > n {
		x = (x + n/x) / 2
	}
	return x
}

// dumpCentroidDistances logs every pairwise centroid distance in ascending
// order, a diagnostic gated on Config.Debug for inspecting how
// well-separated the trained centroids turned out to be.
func dumpCentroidDistances(ci *ivf.ClusterIndex) {
	type pair struct {
		i, j int
		d    float32
	}
	k := ci.Centroids.N()
	var pairs []pair
	for i := 0; i < k; i++ {
		row := ci.Centroids.GetSegment(i)
		for j := i + 1; j < k; j++ {
			other := ci.Centroids.GetSegment(j)
			pairs = append(pairs, pair{i: i, j: j, d: distance.SqDist(row, other)})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].d < pairs[b].d })
	for _, p := range pairs {
		telemetry.Debug("centroid pair distance", "i", p.i, "j", p.j, "sq_dist", p.d)
	}
}
