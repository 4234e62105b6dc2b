package ann

import (
	"math/rand"
	"sort"

	"github.com/coder/hnsw"

	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/simd"
)

// hnswIndex is a hierarchical navigable small world graph keyed by row index.
// Graph results are re-ranked by exact squared distance so ordering and ties
// match the other indexes.
type hnswIndex struct {
	dim   int
	o     Options
	graph *hnsw.Graph[int]
	vecs  [][]float32
}

func newHNSW(dim int, o Options) *hnswIndex {
	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.EuclideanDistance
	g.M = o.HNSWM
	g.EfSearch = o.HNSWEf
	g.Rng = rand.New(rand.NewSource(o.Seed))
	return &hnswIndex{dim: dim, o: o, graph: g}
}

func (h *hnswIndex) Name() string { return "hnsw" }

func (h *hnswIndex) Train(nn.PointSet) error { return nil }

func (h *hnswIndex) Add(data nn.PointSet) error {
	if err := checkDim(data, h.dim); err != nil {
		return err
	}
	for i := 0; i < data.Len(); i++ {
		vec := make([]float32, h.dim)
		copy(vec, data.Row(i))
		h.graph.Add(hnsw.MakeNode(len(h.vecs), vec))
		h.vecs = append(h.vecs, vec)
	}
	return nil
}

func (h *hnswIndex) Len() int { return len(h.vecs) }

// Search runs queries sequentially.
func (h *hnswIndex) Search(queries nn.PointSet, k int) ([][]int, error) {
	if err := checkSearch(queries, h.dim, h.Len(), k); err != nil {
		return nil, err
	}
	out := make([][]int, queries.Len())
	for i := range out {
		q := queries.Row(i)
		nodes := h.graph.Search(q, k)
		hits := make([]hit, len(nodes))
		for j, n := range nodes {
			hits[j] = hit{id: n.Key, dist: simd.SquaredL2(q, h.vecs[n.Key])}
		}
		sort.Slice(hits, func(a, b int) bool {
			if hits[a].dist != hits[b].dist {
				return hits[a].dist < hits[b].dist
			}
			return hits[a].id < hits[b].id
		})
		row := make([]int, len(hits))
		for j, c := range hits {
			row[j] = c.id
		}
		out[i] = pad(row, k)
	}
	return out, nil
}
