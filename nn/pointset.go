package nn

import "gonum.org/v1/gonum/blas/blas32"

// PointSet is an ordered set of fixed-dimension float32 vectors stored as a dense
// row-major matrix (rows = points, columns = dimension).
type PointSet struct {
	rows int
	dim  int
	data []float32
}

// NewPointSet wraps data as a rows×dim point set. A nil data slice allocates zeroed
// storage; otherwise len(data) must equal rows*dim. data is not copied.
func NewPointSet(rows, dim int, data []float32) (PointSet, error) {
	if rows < 0 || dim <= 0 {
		return PointSet{}, invalidf("bad shape %dx%d", rows, dim)
	}
	if data == nil {
		data = make([]float32, rows*dim)
	}
	if len(data) != rows*dim {
		return PointSet{}, invalidf("data length %d does not match shape %dx%d", len(data), rows, dim)
	}
	return PointSet{rows: rows, dim: dim, data: data}, nil
}

// PointSetFromRows copies rows into a contiguous point set. All rows must share one
// dimension. An empty input yields an empty point set.
func PointSetFromRows(rows [][]float32) (PointSet, error) {
	if len(rows) == 0 {
		return PointSet{}, nil
	}
	dim := len(rows[0])
	if dim == 0 {
		return PointSet{}, invalidf("row 0 is empty")
	}
	data := make([]float32, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return PointSet{}, invalidf("row %d has dimension %d, want %d", i, len(r), dim)
		}
		copy(data[i*dim:], r)
	}
	return PointSet{rows: len(rows), dim: dim, data: data}, nil
}

// Len returns the number of points.
func (p PointSet) Len() int { return p.rows }

// Dim returns the dimension d.
func (p PointSet) Dim() int { return p.dim }

// Data returns the backing row-major slice.
func (p PointSet) Data() []float32 { return p.data }

// Row returns a view of point i.
func (p PointSet) Row(i int) []float32 {
	return p.data[i*p.dim : (i+1)*p.dim : (i+1)*p.dim]
}

// Slice returns a zero-copy view of rows [lo, hi).
func (p PointSet) Slice(lo, hi int) PointSet {
	return PointSet{rows: hi - lo, dim: p.dim, data: p.data[lo*p.dim : hi*p.dim]}
}

// Rows returns per-point views, for collaborators that take [][]float32.
func (p PointSet) Rows() [][]float32 {
	out := make([][]float32, p.rows)
	for i := range out {
		out[i] = p.Row(i)
	}
	return out
}

func (p PointSet) general() blas32.General {
	return blas32.General{Rows: p.rows, Cols: p.dim, Stride: p.dim, Data: p.data}
}
