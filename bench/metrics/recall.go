package metrics

import (
	"fmt"
	"math"

	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/simd"
)

// Recall1 is the fraction of queries whose approximate top-1 equals the exact
// nearest neighbor.
func Recall1(approx, exact []int) (float64, error) {
	if len(approx) != len(exact) {
		return 0, fmt.Errorf("%w: %d approximate vs %d exact results", nn.ErrInvalidInput, len(approx), len(exact))
	}
	if len(exact) == 0 {
		return 0, fmt.Errorf("%w: no queries", nn.ErrInvalidInput)
	}
	hits := 0
	for i := range exact {
		if approx[i] == exact[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(exact)), nil
}

// RecallK is the fraction of queries whose exact nearest neighbor appears among
// the approximate top-k row.
func RecallK(approx [][]int, exact []int) (float64, error) {
	if len(approx) != len(exact) {
		return 0, fmt.Errorf("%w: %d approximate vs %d exact results", nn.ErrInvalidInput, len(approx), len(exact))
	}
	if len(exact) == 0 {
		return 0, fmt.Errorf("%w: no queries", nn.ErrInvalidInput)
	}
	hits := 0
	for i, row := range approx {
		for _, id := range row {
			if id == exact[i] {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(exact)), nil
}

// MeanNeighborDistance is the mean over queries of the squared Euclidean distance
// from x[i] to y[idx[i]]. Entries of -1 (no neighbor found) are skipped; NaN is
// returned when every entry is skipped.
func MeanNeighborDistance(x, y nn.PointSet, idx []int) (float64, error) {
	if len(idx) != x.Len() {
		return 0, fmt.Errorf("%w: %d indices for %d queries", nn.ErrInvalidInput, len(idx), x.Len())
	}
	if x.Dim() != y.Dim() {
		return 0, fmt.Errorf("%w: dimension mismatch %d vs %d", nn.ErrInvalidInput, x.Dim(), y.Dim())
	}
	var sum float64
	n := 0
	for i, j := range idx {
		if j < 0 {
			continue
		}
		if j >= y.Len() {
			return 0, fmt.Errorf("%w: index %d out of range [0,%d)", nn.ErrInvalidInput, j, y.Len())
		}
		sum += simd.SquaredL2(x.Row(i), y.Row(j))
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}
