package ann

import (
	"math/bits"
	"math/rand"

	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/simd"
)

// lsh is random-hyperplane hashing: each vector becomes an NBits code of sign bits
// and candidates are ranked by Hamming distance between codes.
type lsh struct {
	dim    int
	o      Options
	nbits  int
	words  int
	planes []float32 // nbits*dim
	codes  []uint64  // words per vector
}

func newLSH(dim int, o Options) *lsh {
	nbits := o.NBits
	if nbits <= 0 {
		nbits = dim
	}
	rng := rand.New(rand.NewSource(o.Seed))
	planes := make([]float32, nbits*dim)
	for i := range planes {
		planes[i] = float32(rng.NormFloat64())
	}
	return &lsh{dim: dim, o: o, nbits: nbits, words: (nbits + 63) / 64, planes: planes}
}

func (l *lsh) Name() string { return "lsh" }

func (l *lsh) Train(nn.PointSet) error { return nil }

func (l *lsh) Add(data nn.PointSet) error {
	if err := checkDim(data, l.dim); err != nil {
		return err
	}
	for i := 0; i < data.Len(); i++ {
		l.codes = append(l.codes, l.encode(data.Row(i))...)
	}
	return nil
}

func (l *lsh) Len() int { return len(l.codes) / l.words }

func (l *lsh) encode(v []float32) []uint64 {
	code := make([]uint64, l.words)
	for b := 0; b < l.nbits; b++ {
		if simd.DotProduct(v, l.planes[b*l.dim:(b+1)*l.dim]) > 0 {
			code[b/64] |= 1 << (b % 64)
		}
	}
	return code
}

func (l *lsh) Search(queries nn.PointSet, k int) ([][]int, error) {
	if err := checkSearch(queries, l.dim, l.Len(), k); err != nil {
		return nil, err
	}
	out := make([][]int, queries.Len())
	n := l.Len()
	forEachQuery(queries.Len(), l.o.Workers, func(i int) {
		qc := l.encode(queries.Row(i))
		top := newTopK(k)
		for id := 0; id < n; id++ {
			c := l.codes[id*l.words : (id+1)*l.words]
			d := 0
			for w := range qc {
				d += bits.OnesCount64(qc[w] ^ c[w])
			}
			top.push(id, float64(d))
		}
		out[i] = top.ids()
	})
	return out, nil
}
