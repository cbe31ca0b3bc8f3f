// Package sampler implements the reservoir sampler used to pick the
// k-means training subset: a uniform-without-replacement sample of M ids
// from [0,N), reproducible from a caller-supplied seed.
package sampler

import (
	"math/rand"

	"github.com/ivfann/ivfann/internal/intlist"
)

// Sample draws m distinct ids from [0,n) uniformly without replacement,
// using Algorithm R seeded by seed. If m >= n, the full range [0,n) is
// returned. The returned IntList's order is not meaningful.
func Sample(n, m int, seed int64) *intlist.IntList {
	if m >= n {
		full := intlist.New(n)
		for i := 0; i < n; i++ {
			full.Add(int32(i))
		}
		return full
	}

	r := rand.New(rand.NewSource(seed))

	reservoir := intlist.New(m)
	for i := 0; i < m; i++ {
		reservoir.Add(int32(i))
	}

	for i := m; i < n; i++ {
		j := r.Intn(i + 1)
		if j < m {
			reservoir.Update(j, int32(i))
		}
	}

	return reservoir
}
