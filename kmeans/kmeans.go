// Package kmeans clusters flat row-major float32 data with Lloyd's algorithm.
// Used for routing-tree leaf splits (k=2) and the IVF coarse quantizer.
package kmeans

import (
	"math/rand"

	"github.com/ic-timon/nnbench/simd"
)

// DefaultRounds is the number of assign/update rounds when Fit is given rounds <= 0.
const DefaultRounds = 8

// Result holds the trained centroids and the final assignment of every input row.
type Result struct {
	K         int
	Dim       int
	Centroids []float32 // K*Dim, row-major
	Assign    []int
}

// Centroid returns a view of centroid c.
func (r *Result) Centroid(c int) []float32 {
	return r.Centroids[c*r.Dim : (c+1)*r.Dim]
}

// Nearest returns the centroid closest to v; ties go to the lower index.
func (r *Result) Nearest(v []float32) int {
	best := 0
	bestD := simd.SquaredL2(v, r.Centroid(0))
	for c := 1; c < r.K; c++ {
		if d := simd.SquaredL2(v, r.Centroid(c)); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// Fit clusters the rows of data (len(data)/dim rows) into k groups. k is clamped to
// [1, rows]. Initial centroids are k distinct rows drawn with seed. Empty clusters
// keep their previous centroid.
func Fit(data []float32, dim, k, rounds int, seed int64) *Result {
	n := 0
	if dim > 0 {
		n = len(data) / dim
	}
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	k = max(1, min(k, n))
	r := &Result{K: k, Dim: dim, Centroids: make([]float32, k*dim), Assign: make([]int, n)}
	if n == 0 {
		return r
	}
	rng := rand.New(rand.NewSource(seed))
	for c, idx := range rng.Perm(n)[:k] {
		copy(r.Centroid(c), data[idx*dim:(idx+1)*dim])
	}

	sums := make([]float64, k*dim)
	counts := make([]int, k)
	for round := 0; round < rounds; round++ {
		changed := false
		for i := 0; i < n; i++ {
			a := r.Nearest(data[i*dim : (i+1)*dim])
			if a != r.Assign[i] || round == 0 {
				changed = true
			}
			r.Assign[i] = a
		}
		if !changed {
			break
		}
		clear(sums)
		clear(counts)
		for i := 0; i < n; i++ {
			a := r.Assign[i]
			counts[a]++
			row := data[i*dim : (i+1)*dim]
			s := sums[a*dim : (a+1)*dim]
			for j, v := range row {
				s[j] += float64(v)
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			cent := r.Centroid(c)
			s := sums[c*dim : (c+1)*dim]
			for j := range cent {
				cent[j] = float32(s[j] / float64(counts[c]))
			}
		}
	}
	return r
}
