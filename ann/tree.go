package ann

import (
	"github.com/ic-timon/nnbench/indexer"
	"github.com/ic-timon/nnbench/nn"
)

// treeIndex adapts the density-adaptive routing tree.
type treeIndex struct {
	dim  int
	o    Options
	tree *indexer.Tree
}

func newTree(dim int, o Options) *treeIndex {
	cfg := indexer.DefaultConfig(dim)
	cfg.Seed = o.Seed
	return &treeIndex{dim: dim, o: o, tree: indexer.NewTree(cfg)}
}

func (t *treeIndex) Name() string { return "tree" }

func (t *treeIndex) Train(nn.PointSet) error { return nil }

func (t *treeIndex) Add(data nn.PointSet) error {
	if err := checkDim(data, t.dim); err != nil {
		return err
	}
	base := t.tree.Len()
	for i := 0; i < data.Len(); i++ {
		t.tree.Add(data.Row(i), base+i)
	}
	return nil
}

func (t *treeIndex) Len() int { return t.tree.Len() }

func (t *treeIndex) Search(queries nn.PointSet, k int) ([][]int, error) {
	if err := checkSearch(queries, t.dim, t.Len(), k); err != nil {
		return nil, err
	}
	results := t.tree.SearchBatch(queries.Rows(), k, t.o.Workers)
	out := make([][]int, len(results))
	for i, rs := range results {
		row := make([]int, len(rs))
		for j, r := range rs {
			row[j] = r.ID
		}
		out[i] = pad(row, k)
	}
	return out, nil
}
