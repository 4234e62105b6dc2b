package ann

import (
	"github.com/ic-timon/nnbench/nn"
)

// flat is exact brute-force search over the batched distance tiles.
type flat struct {
	dim  int
	o    Options
	data []float32
}

func newFlat(dim int, o Options) *flat {
	return &flat{dim: dim, o: o}
}

func (f *flat) Name() string { return "flat" }

func (f *flat) Train(nn.PointSet) error { return nil }

func (f *flat) Add(data nn.PointSet) error {
	if err := checkDim(data, f.dim); err != nil {
		return err
	}
	f.data = append(f.data, data.Data()...)
	return nil
}

func (f *flat) Len() int { return len(f.data) / f.dim }

func (f *flat) Search(queries nn.PointSet, k int) ([][]int, error) {
	if err := checkSearch(queries, f.dim, f.Len(), k); err != nil {
		return nil, err
	}
	base, err := nn.NewPointSet(f.Len(), f.dim, f.data)
	if err != nil {
		return nil, err
	}
	out, err := nn.KNearest(queries, base, k, f.o.BatchSize, nn.WithWorkers(f.o.Workers))
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = pad(out[i], k)
	}
	return out, nil
}
