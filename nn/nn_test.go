package nn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoints(t *testing.T, rows [][]float32) PointSet {
	t.Helper()
	ps, err := PointSetFromRows(rows)
	require.NoError(t, err)
	return ps
}

func randomPoints(n, d int, seed int64) PointSet {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n*d)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	ps, _ := NewPointSet(n, d, data)
	return ps
}

func bruteForceNearest(x, y PointSet) []int {
	out := make([]int, x.Len())
	for i := 0; i < x.Len(); i++ {
		best, bestD := 0, float64(-1)
		for j := 0; j < y.Len(); j++ {
			var d float64
			for k, v := range x.Row(i) {
				diff := float64(v - y.Row(j)[k])
				d += diff * diff
			}
			if bestD < 0 || d < bestD {
				best, bestD = j, d
			}
		}
		out[i] = best
	}
	return out
}

func TestPointSet(t *testing.T) {
	ps, err := NewPointSet(2, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 2, ps.Len())
	assert.Equal(t, 3, ps.Dim())
	assert.Equal(t, []float32{4, 5, 6}, ps.Row(1))
	assert.Equal(t, []float32{4, 5, 6}, ps.Slice(1, 2).Row(0))
	assert.Len(t, ps.Rows(), 2)

	_, err = NewPointSet(2, 3, []float32{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewPointSet(1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = PointSetFromRows([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	empty, err := PointSetFromRows(nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestPairwiseSquaredDistance(t *testing.T) {
	x := mustPoints(t, [][]float32{{0, 0}, {10, 10}})
	y := mustPoints(t, [][]float32{{0, 0}, {1, 1}, {10, 10}})
	m, err := PairwiseSquaredDistance(x, y)
	require.NoError(t, err)
	require.Equal(t, 2, m.Rows)
	require.Equal(t, 3, m.Cols)
	assert.InDeltaSlice(t, []float32{0, 1, 100}, m.Row(0), 1e-4)
	assert.InDeltaSlice(t, []float32{100, 81, 0}, m.Row(1), 1e-4)
}

func TestPairwiseSquaredDistance_SelfAndSymmetry(t *testing.T) {
	x := randomPoints(17, 9, 1)
	y := randomPoints(11, 9, 2)

	self, err := PairwiseSquaredDistance(x, x)
	require.NoError(t, err)
	for i := 0; i < x.Len(); i++ {
		assert.InDelta(t, 0, self.At(i, i), 1e-4)
	}

	xy, err := PairwiseSquaredDistance(x, y)
	require.NoError(t, err)
	yx, err := PairwiseSquaredDistance(y, x)
	require.NoError(t, err)
	for i := 0; i < x.Len(); i++ {
		for j := 0; j < y.Len(); j++ {
			assert.InDelta(t, xy.At(i, j), yx.At(j, i), 1e-4)
		}
	}
}

func TestClampNonNegative(t *testing.T) {
	x := randomPoints(8, 5, 3)
	m, err := PairwiseSquaredDistance(x, x)
	require.NoError(t, err)
	m.ClampNonNegative()
	for i := 0; i < m.Rows; i++ {
		for _, v := range m.Row(i) {
			assert.GreaterOrEqual(t, v, float32(0))
		}
	}
}

// Large coordinates with fractional offsets make the norm expansion cancel badly,
// so duplicate pairs can come out slightly negative.
func TestBatchedNearestNeighbor_CancellationNoise(t *testing.T) {
	const d = 16
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 500; trial++ {
		p := make([]float32, d)
		q := make([]float32, d)
		qShift := make([]float32, d)
		for k := range p {
			p[k] = float32(1000 + 1000*rng.Float64())
			q[k] = p[k] + 50
			qShift[k] = q[k] + 0.25
		}
		x := mustPoints(t, [][]float32{p, q})
		y := mustPoints(t, [][]float32{p, qShift})

		mins, err := ColumnwiseMinimum(x, y, 1)
		require.NoError(t, err)
		for _, v := range mins {
			require.GreaterOrEqual(t, v, float32(0), "trial %d", trial)
		}
		norm, err := Normalize(mins, 0.01)
		require.NoError(t, err)
		for _, v := range norm {
			require.Greater(t, v, float32(0), "trial %d", trial)
		}
		got, err := BatchedNearestNeighbor(x, y, 0.01, 1)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1}, got, "trial %d mins %v", trial, mins)
	}
}

func TestNormalize_NegativeRawTreatedAsZero(t *testing.T) {
	norm, err := Normalize([]float32{-0.5, 0, 2}, 0.01)
	require.NoError(t, err)
	assert.Equal(t, float32(0.01), norm[0])
	assert.Equal(t, float32(0.01), norm[1])
	assert.InDelta(t, 2.01, norm[2], 1e-6)
}

func TestSpecExample(t *testing.T) {
	x := mustPoints(t, [][]float32{{0, 0}, {10, 10}})
	y := mustPoints(t, [][]float32{{0, 0}, {1, 1}, {10, 10}})

	plain, err := PlainNearestNeighbor(x, y, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, plain)

	batched, err := BatchedNearestNeighbor(x, y, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, batched)

	mins, err := ColumnwiseMinimum(x, y, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, mins, 1e-4)

	norm, err := Normalize(mins, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 2, 1}, norm, 1e-4)
}

func TestBatchedNearestNeighbor_PenalizesPopularCandidate(t *testing.T) {
	// Y[0] is the plain nearest neighbor of both queries, but it is much closer
	// to X[0] than to X[1]; Y[1] is farther from X[1] yet matched by nobody else.
	x := mustPoints(t, [][]float32{{0, 0}, {1, 0}})
	y := mustPoints(t, [][]float32{{0.4, 0}, {1.7, 0}})

	plain, err := PlainNearestNeighbor(x, y, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, plain)

	batched, err := BatchedNearestNeighbor(x, y, 0.001, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, batched)

	// with a large alpha the normalizer is uniform and the plain ranking returns
	batched, err = BatchedNearestNeighbor(x, y, 1000, 1)
	require.NoError(t, err)
	assert.Equal(t, plain, batched)
}

func TestPlainNearestNeighbor_MatchesBruteForce(t *testing.T) {
	x := randomPoints(37, 6, 10)
	y := randomPoints(23, 6, 11)
	want := bruteForceNearest(x, y)
	for _, b := range []int{1, 5, 23, 37, 100} {
		got, err := PlainNearestNeighbor(x, y, b)
		require.NoError(t, err)
		assert.Equal(t, want, got, "b=%d", b)
	}
}

func TestBatchedNearestNeighbor_LargeAlphaConvergesToPlain(t *testing.T) {
	x := randomPoints(40, 4, 20)
	y := randomPoints(30, 4, 21)
	plain, err := PlainNearestNeighbor(x, y, 7)
	require.NoError(t, err)
	batched, err := BatchedNearestNeighbor(x, y, 1e6, 7)
	require.NoError(t, err)
	assert.Equal(t, plain, batched)
}

func TestBatchedNearestNeighbor_Workers(t *testing.T) {
	x := randomPoints(101, 8, 30)
	y := randomPoints(77, 8, 31)
	seq, err := BatchedNearestNeighbor(x, y, 0.5, 9)
	require.NoError(t, err)
	par, err := BatchedNearestNeighbor(x, y, 0.5, 9, WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, seq, par)

	seqMins, err := ColumnwiseMinimum(x, y, 9)
	require.NoError(t, err)
	parMins, err := ColumnwiseMinimum(x, y, 9, WithWorkers(3))
	require.NoError(t, err)
	assert.Equal(t, seqMins, parMins)
}

func TestSingletonSets(t *testing.T) {
	x := mustPoints(t, [][]float32{{1, 2, 3}})
	y := mustPoints(t, [][]float32{{3, 2, 1}})
	for _, b := range []int{1, 2, 1000} {
		got, err := BatchedNearestNeighbor(x, y, 1, b)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, got)
		got, err = PlainNearestNeighbor(x, y, b)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, got)
	}
}

func TestTieBreakLowestIndex(t *testing.T) {
	x := mustPoints(t, [][]float32{{0, 0}})
	y := mustPoints(t, [][]float32{{1, 0}, {0, 1}, {-1, 0}})
	got, err := PlainNearestNeighbor(x, y, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	got, err = BatchedNearestNeighbor(x, y, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	knn, err := KNearest(x, y, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}}, knn)
}

func TestInvalidInput(t *testing.T) {
	x := mustPoints(t, [][]float32{{0, 0}})
	y := mustPoints(t, [][]float32{{0, 0, 0}})
	empty := PointSet{}
	ok := mustPoints(t, [][]float32{{1, 1}})

	cases := map[string]func() error{
		"dimension mismatch": func() error { _, err := BatchedNearestNeighbor(x, y, 1, 1); return err },
		"zero batch":         func() error { _, err := BatchedNearestNeighbor(x, ok, 1, 0); return err },
		"negative batch":     func() error { _, err := PlainNearestNeighbor(x, ok, -3); return err },
		"empty queries":      func() error { _, err := BatchedNearestNeighbor(empty, ok, 1, 1); return err },
		"empty candidates":   func() error { _, err := ColumnwiseMinimum(x, empty, 1); return err },
		"zero alpha":         func() error { _, err := BatchedNearestNeighbor(x, ok, 0, 1); return err },
		"negative alpha":     func() error { _, err := Normalize([]float32{1}, -1); return err },
		"pairwise mismatch":  func() error { _, err := PairwiseSquaredDistance(x, y); return err },
		"zero k":             func() error { _, err := KNearest(x, ok, 0, 1); return err },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			err := fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), err.Error())
		})
	}
}

func TestKNearest(t *testing.T) {
	x := randomPoints(19, 5, 40)
	y := randomPoints(13, 5, 41)
	plain, err := PlainNearestNeighbor(x, y, 4)
	require.NoError(t, err)

	knn, err := KNearest(x, y, 4, 6)
	require.NoError(t, err)
	require.Len(t, knn, x.Len())
	full, err := PairwiseSquaredDistance(x, y)
	require.NoError(t, err)
	for i, row := range knn {
		require.Len(t, row, 4)
		assert.Equal(t, plain[i], row[0])
		for j := 1; j < len(row); j++ {
			assert.LessOrEqual(t, full.At(i, row[j-1]), full.At(i, row[j]))
		}
	}

	all, err := KNearest(x, y, 100, 19)
	require.NoError(t, err)
	assert.Len(t, all[0], y.Len())
}

func TestBatches(t *testing.T) {
	assert.Equal(t, []window{{0, 3}, {3, 6}, {6, 7}}, batches(7, 3))
	assert.Equal(t, []window{{0, 5}}, batches(5, 10))
	assert.Equal(t, []window{{0, 1}}, batches(1, 1))
}
