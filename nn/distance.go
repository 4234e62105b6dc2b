package nn

import (
	"github.com/ic-timon/nnbench/simd"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// DistanceMatrix is a dense |X|×|Y| tile of squared Euclidean distances divided by d.
// Entries may carry small negative rounding noise near zero; see ClampNonNegative.
type DistanceMatrix struct {
	blas32.General
}

// At returns entry (i, j).
func (m DistanceMatrix) At(i, j int) float32 {
	return m.Data[i*m.Stride+j]
}

// Row returns a view of row i.
func (m DistanceMatrix) Row(i int) []float32 {
	return m.Data[i*m.Stride : i*m.Stride+m.Cols]
}

// ClampNonNegative replaces negative entries with zero in place.
func (m DistanceMatrix) ClampNonNegative() {
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)
		for j, v := range row {
			if v < 0 {
				row[j] = 0
			}
		}
	}
}

// PairwiseSquaredDistance returns the full tile (‖X_i‖² + ‖Y_j‖² − 2·X_i·Y_j) / d.
// Peak memory is O(|X|·|Y|); use the batched functions for large inputs.
func PairwiseSquaredDistance(x, y PointSet) (DistanceMatrix, error) {
	if err := validatePair(x, y); err != nil {
		return DistanceMatrix{}, err
	}
	var s scratch
	return s.tile(x, y), nil
}

// scratch holds the reusable buffers of one batch worker.
type scratch struct {
	tileBuf []float32
	xNorms  []float32
	yNorms  []float32
}

// tile computes the distance tile of x against y into s.tileBuf. The returned
// matrix is valid until the next call on s.
func (s *scratch) tile(x, y PointSet) DistanceMatrix {
	s.xNorms = simd.SquaredNorms(x.data, x.dim, s.xNorms)
	s.yNorms = simd.SquaredNorms(y.data, y.dim, s.yNorms)
	return s.tileWithNorms(x, y, s.xNorms, s.yNorms)
}

// tileWithNorms is tile with precomputed norm vectors.
func (s *scratch) tileWithNorms(x, y PointSet, xNorms, yNorms []float32) DistanceMatrix {
	n := x.rows * y.rows
	if cap(s.tileBuf) < n {
		s.tileBuf = make([]float32, n)
	}
	c := blas32.General{Rows: x.rows, Cols: y.rows, Stride: y.rows, Data: s.tileBuf[:n]}
	yg := y.general()
	invD := 1 / float32(x.dim)
	for i := 0; i < c.Rows; i++ {
		row := c.Data[i*c.Stride : i*c.Stride+c.Cols]
		// row = -2 · Y · X_i; one GEMV per query keeps each entry's summation
		// order independent of the batch shape.
		blas32.Gemv(blas.NoTrans, -2, yg,
			blas32.Vector{N: x.dim, Inc: 1, Data: x.Row(i)},
			0, blas32.Vector{N: c.Cols, Inc: 1, Data: row})
		xn := xNorms[i]
		for j := range row {
			row[j] = (xn + yNorms[j] + row[j]) * invD
		}
	}
	return DistanceMatrix{General: c}
}
