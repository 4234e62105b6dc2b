package nn

import (
	"math"
	"sync"

	"github.com/ic-timon/nnbench/simd"
	"golang.org/x/sync/errgroup"
)

// window is a half-open row range [lo, hi).
type window struct{ lo, hi int }

// batches partitions [0, n) into consecutive windows of size b; the last one may be shorter.
func batches(n, b int) []window {
	out := make([]window, 0, (n+b-1)/b)
	for lo := 0; lo < n; lo += b {
		out = append(out, window{lo: lo, hi: min(lo+b, n)})
	}
	return out
}

var scratchPool = sync.Pool{
	New: func() any { return new(scratch) },
}

// forEachBatch runs fn once per window. With one worker the windows run in order on
// a single scratch; otherwise up to workers windows run concurrently.
func forEachBatch(ws []window, workers int, fn func(w window, s *scratch)) {
	if workers <= 1 || len(ws) == 1 {
		s := scratchPool.Get().(*scratch)
		defer scratchPool.Put(s)
		for _, w := range ws {
			fn(w, s)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, w := range ws {
		w := w
		g.Go(func() error {
			s := scratchPool.Get().(*scratch)
			defer scratchPool.Put(s)
			fn(w, s)
			return nil
		})
	}
	_ = g.Wait()
}

// ColumnwiseMinimum returns, for every candidate Y_j, min_i dist(X_i, Y_j). Y is
// processed in batches of b columns so peak tile memory is |X|×b.
func ColumnwiseMinimum(x, y PointSet, b int, opts ...Option) ([]float32, error) {
	if err := validatePair(x, y); err != nil {
		return nil, err
	}
	if err := validateBatch(b); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	return columnwiseMinimum(x, y, b, o), nil
}

func columnwiseMinimum(x, y PointSet, b int, o options) []float32 {
	mins := make([]float32, y.rows)
	xNorms := simd.SquaredNorms(x.data, x.dim, nil)
	yNorms := simd.SquaredNorms(y.data, y.dim, nil)
	forEachBatch(batches(y.rows, b), o.workers, func(w window, s *scratch) {
		t := s.tileWithNorms(x, y.Slice(w.lo, w.hi), xNorms, yNorms[w.lo:w.hi])
		out := mins[w.lo:w.hi]
		for j := range out {
			out[j] = float32(math.Inf(1))
		}
		for i := 0; i < t.Rows; i++ {
			for j, v := range t.Row(i) {
				if v < out[j] {
					out[j] = v
				}
			}
		}
		// rounding noise below zero would let alpha+min reach zero or flip sign
		for j := range out {
			out[j] = max(out[j], 0)
		}
	})
	return mins
}

// Normalize returns alpha + max(raw[j], 0) for every j. alpha must be positive and finite.
func Normalize(raw []float32, alpha float32) ([]float32, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	out := make([]float32, len(raw))
	for j, v := range raw {
		out[j] = alpha + max(v, 0)
	}
	return out, nil
}

func validateAlpha(alpha float32) error {
	a := float64(alpha)
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return invalidf("alpha must be positive and finite, got %v", alpha)
	}
	return nil
}

// BatchedNearestNeighbor returns, for every query X_i, the index j minimizing
// dist(X_i, Y_j) / (alpha + min_k dist(X_k, Y_j)). The normalizing vector is fully
// computed before the first query batch. Peak tile memory is max(|X|, |Y|)×b.
func BatchedNearestNeighbor(x, y PointSet, alpha float32, b int, opts ...Option) ([]int, error) {
	if err := validatePair(x, y); err != nil {
		return nil, err
	}
	if err := validateBatch(b); err != nil {
		return nil, err
	}
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	normalizing, err := Normalize(columnwiseMinimum(x, y, b, o), alpha)
	if err != nil {
		return nil, err
	}
	return nearest(x, y, normalizing, b, o), nil
}

// PlainNearestNeighbor returns the exact unnormalized nearest neighbor of every query.
// The result does not depend on b.
func PlainNearestNeighbor(x, y PointSet, b int, opts ...Option) ([]int, error) {
	if err := validatePair(x, y); err != nil {
		return nil, err
	}
	if err := validateBatch(b); err != nil {
		return nil, err
	}
	return nearest(x, y, nil, b, applyOptions(opts)), nil
}

// nearest runs the row-batched argmin pass. A nil normalizing vector means ≡ 1.
func nearest(x, y PointSet, normalizing []float32, b int, o options) []int {
	out := make([]int, x.rows)
	yNorms := simd.SquaredNorms(y.data, y.dim, nil)
	xNorms := simd.SquaredNorms(x.data, x.dim, nil)
	forEachBatch(batches(x.rows, b), o.workers, func(w window, s *scratch) {
		t := s.tileWithNorms(x.Slice(w.lo, w.hi), y, xNorms[w.lo:w.hi], yNorms)
		for i := 0; i < t.Rows; i++ {
			out[w.lo+i] = argmin(t.Row(i), normalizing)
		}
	})
	return out
}

// argmin returns the lowest index of the minimum of max(row[j], 0) / normalizing[j].
// NaN entries never win.
func argmin(row, normalizing []float32) int {
	best := 0
	bestVal := float32(math.Inf(1))
	found := false
	for j, v := range row {
		if v < 0 {
			v = 0
		}
		if normalizing != nil {
			v /= normalizing[j]
		}
		if v < bestVal || (!found && v == bestVal) {
			best, bestVal, found = j, v, true
		}
	}
	return best
}
