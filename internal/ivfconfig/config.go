// Package ivfconfig holds the hyperparameters and process-wide switches
// for building and querying an index, loaded once at startup either
// programmatically via Default() or from a YAML file via FromFile.
package ivfconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivfann/ivfann/internal/vecstore"
)

// Config holds build- and query-time hyperparameters plus the
// process-wide switches a harness toggles at startup: storage layout,
// debug logging, and whether to rebuild or load an existing index.
type Config struct {
	// Storage selects the VectorStore variant. "off-heap" (default) or
	// "on-heap"; corresponds to the vector.storage process key.
	Storage string `yaml:"storage"`

	// KMeansIters bounds Lloyd's algorithm iterations.
	KMeansIters int `yaml:"kmeans_iters"`

	// SampleFraction picks the k-means training sample size as
	// floor(f*N).
	SampleFraction float64 `yaml:"sample_fraction"`

	// ProbeFraction picks how many clusters a query scans:
	// max(1, floor(p*k)).
	ProbeFraction float64 `yaml:"probe_fraction"`

	// Seed drives both the reservoir sampler and k-means initialization.
	Seed int64 `yaml:"seed"`

	// Debug enables the centroid pairwise-distance diagnostic dump.
	// Corresponds to the vector.debug process key.
	Debug bool `yaml:"debug"`

	// Build controls whether a harness should rebuild (true) or load an
	// existing index (false). The core never reads this field itself; it
	// exists so a single Config value can drive both paths for callers.
	Build bool `yaml:"build"`
}

// Default returns the spec's documented defaults.
func Default() *Config {
	return &Config{
		Storage:        "off-heap",
		KMeansIters:    300,
		SampleFraction: 0.10,
		ProbeFraction:  0.01,
		Seed:           0x5eed,
		Debug:          false,
		Build:          true,
	}
}

// FromFile loads a Config from a YAML file, filling in any field the file
// omits with Default()'s value.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ivfconfig: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ivfconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// StorageKind resolves the Storage string field to a vecstore.Kind,
// defaulting to OffHeap for anything other than an explicit "on-heap".
func (c *Config) StorageKind() vecstore.Kind {
	if c.Storage == "on-heap" {
		return vecstore.OnHeap
	}
	return vecstore.OffHeap
}
