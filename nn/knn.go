package nn

import (
	"container/heap"

	"github.com/ic-timon/nnbench/simd"
)

// KNearest returns, for every query, the indices of its k nearest candidates in
// ascending distance order; ties resolve to the lower index. When k > |Y| every row
// has |Y| entries.
func KNearest(x, y PointSet, k, b int, opts ...Option) ([][]int, error) {
	if err := validatePair(x, y); err != nil {
		return nil, err
	}
	if err := validateBatch(b); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, invalidf("k must be positive, got %d", k)
	}
	k = min(k, y.rows)
	o := applyOptions(opts)
	out := make([][]int, x.rows)
	xNorms := simd.SquaredNorms(x.data, x.dim, nil)
	yNorms := simd.SquaredNorms(y.data, y.dim, nil)
	forEachBatch(batches(x.rows, b), o.workers, func(w window, s *scratch) {
		t := s.tileWithNorms(x.Slice(w.lo, w.hi), y, xNorms[w.lo:w.hi], yNorms)
		h := make(worstFirst, 0, k+1)
		for i := 0; i < t.Rows; i++ {
			out[w.lo+i] = topK(t.Row(i), k, h[:0])
		}
	})
	return out, nil
}

type candidate struct {
	idx  int
	dist float32
}

// worstFirst is a max-heap on (dist, idx): the root is the candidate evicted first.
type worstFirst []candidate

func (h worstFirst) Len() int { return len(h) }
func (h worstFirst) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].idx > h[j].idx
}
func (h worstFirst) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)   { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func topK(row []float32, k int, h worstFirst) []int {
	for j, v := range row {
		if v != v {
			continue
		}
		if len(h) < k {
			heap.Push(&h, candidate{idx: j, dist: v})
			continue
		}
		// later indices lose ties, so only a strictly smaller distance evicts
		if v < h[0].dist {
			h[0] = candidate{idx: j, dist: v}
			heap.Fix(&h, 0)
		}
	}
	out := make([]int, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(candidate).idx
	}
	return out
}
