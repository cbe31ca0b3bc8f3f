// Package distance implements the squared-Euclidean distance kernel used by
// every stage of the index: k-means assignment, IVF posting-list building,
// and query-time centroid/vector scans.
package distance

// SqDist returns the squared Euclidean distance between a and b, accumulated
// in single precision. Callers guarantee len(a) == len(b) == D; behavior is
// undefined otherwise (no bounds checking is performed beyond what Go's
// slice indexing gives for free).
//
// The loop is unrolled eight-wide so the compiler can keep eight
// float32 accumulators live and vectorize the body; a scalar tail handles
// the remainder. Summation order is fixed for a given length, so repeated
// calls on identical inputs are bit-for-bit identical within one process,
// which is what the heap tie-resolution rules in package search rely on.
func SqDist(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var s0, s1, s2, s3, s4, s5, s6, s7 float32
	i := 0
	for ; i+8 <= n; i += 8 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		d4 := a[i+4] - b[i+4]
		d5 := a[i+5] - b[i+5]
		d6 := a[i+6] - b[i+6]
		d7 := a[i+7] - b[i+7]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
		s4 += d4 * d4
		s5 += d5 * d5
		s6 += d6 * d6
		s7 += d7 * d7
	}

	sum := (s0 + s1) + (s2 + s3) + (s4 + s5) + (s6 + s7)
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
