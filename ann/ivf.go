package ann

import (
	"math"
	"sort"

	"github.com/ic-timon/nnbench/kmeans"
	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/simd"
)

// ivf is an inverted-file index: a k-means coarse quantizer whose cells hold the
// ids and vectors assigned to them. A query scans the NProbe nearest cells.
type ivf struct {
	dim   int
	o     Options
	km    *kmeans.Result
	lists [][]int
	data  []float32
}

func newIVF(dim int, o Options) *ivf {
	return &ivf{dim: dim, o: o}
}

func (v *ivf) Name() string { return "ivf" }

func (v *ivf) Train(data nn.PointSet) error {
	if err := checkDim(data, v.dim); err != nil {
		return err
	}
	nlist := v.o.NList
	if nlist <= 0 {
		nlist = int(math.Sqrt(float64(data.Len())))
	}
	nlist = max(1, min(nlist, data.Len()))
	v.km = kmeans.Fit(data.Data(), v.dim, nlist, 0, v.o.Seed)
	v.lists = make([][]int, v.km.K)
	v.data = v.data[:0]
	return nil
}

func (v *ivf) Add(data nn.PointSet) error {
	if v.km == nil {
		return ErrNotTrained
	}
	if err := checkDim(data, v.dim); err != nil {
		return err
	}
	base := v.Len()
	for i := 0; i < data.Len(); i++ {
		c := v.km.Nearest(data.Row(i))
		v.lists[c] = append(v.lists[c], base+i)
	}
	v.data = append(v.data, data.Data()...)
	return nil
}

func (v *ivf) Len() int { return len(v.data) / v.dim }

func (v *ivf) Search(queries nn.PointSet, k int) ([][]int, error) {
	if v.km == nil {
		return nil, ErrNotTrained
	}
	if err := checkSearch(queries, v.dim, v.Len(), k); err != nil {
		return nil, err
	}
	nprobe := min(v.o.NProbe, v.km.K)
	out := make([][]int, queries.Len())
	forEachQuery(queries.Len(), v.o.Workers, func(i int) {
		q := queries.Row(i)
		top := newTopK(k)
		for _, c := range v.probe(q, nprobe) {
			for _, id := range v.lists[c] {
				top.push(id, simd.SquaredL2(q, v.data[id*v.dim:(id+1)*v.dim]))
			}
		}
		out[i] = top.ids()
	})
	return out, nil
}

// probe returns the nprobe cells nearest to q.
func (v *ivf) probe(q []float32, nprobe int) []int {
	cells := make([]int, v.km.K)
	dists := make([]float64, v.km.K)
	for c := range cells {
		cells[c] = c
		dists[c] = simd.SquaredL2(q, v.km.Centroid(c))
	}
	sort.SliceStable(cells, func(a, b int) bool { return dists[cells[a]] < dists[cells[b]] })
	return cells[:nprobe]
}
