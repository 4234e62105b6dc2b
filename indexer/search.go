package indexer

import (
	"container/heap"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ic-timon/nnbench/simd"
)

// SearchMultiPath performs multi-path search: at each level it enters up to
// SearchWidth children whose centroid lies within (1+PruneEpsilon) of the
// nearest one, deduplicates ids found at the leaves and merges the top k.
// Higher recall than Search.
func (t *Tree) SearchMultiPath(query []float32, k int) []SearchResult {
	if len(query) != t.cfg.Dim || k <= 0 {
		return nil
	}
	root := t.root.Load()
	if root == nil {
		return nil
	}
	seen := make(map[int]float64)
	t.searchMultiPathNode(*root, query, k*t.cfg.SearchWidth, seen)
	return topKFromSeen(seen, k)
}

func (t *Tree) searchMultiPathNode(n Node, query []float32, candidatesPerLeaf int, seen map[int]float64) {
	if n.IsLeaf() {
		for _, r := range n.(*LeafNode).scanTopK(query, candidatesPerLeaf) {
			if existing, ok := seen[r.ID]; !ok || r.Distance < existing {
				seen[r.ID] = r.Distance
			}
		}
		return
	}
	internal := n.(*InternalNode)
	for _, idx := range nearestWithPruning(internal.centroids, query, t.cfg.SearchWidth, t.cfg.PruneEpsilon) {
		if child := internal.Child(idx); child != nil {
			t.searchMultiPathNode(child, query, candidatesPerLeaf, seen)
		}
	}
}

// SearchBatch runs SearchMultiPath for every query on up to workers goroutines.
// workers <= 0 uses GOMAXPROCS.
func (t *Tree) SearchBatch(queries [][]float32, k, workers int) [][]SearchResult {
	out := make([][]SearchResult, len(queries))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			out[i] = t.SearchMultiPath(q, k)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// nearestWithPruning keeps branches with distance <= dMin*(1+epsilon), at most maxK of them.
func nearestWithPruning(centroids [][]float32, query []float32, maxK int, epsilon float64) []int {
	if len(centroids) == 0 || maxK <= 0 {
		return nil
	}
	dists := make([]float64, len(centroids))
	dMin := -1.0
	for i, c := range centroids {
		dists[i] = simd.SquaredL2(query, c)
		if dMin < 0 || dists[i] < dMin {
			dMin = dists[i]
		}
	}
	threshold := dMin * (1 + epsilon)
	var passed []int
	for i, d := range dists {
		if d <= threshold {
			passed = append(passed, i)
		}
	}
	if len(passed) <= maxK {
		return passed
	}
	// partial selection sort
	for i := 0; i < maxK; i++ {
		best := i
		for j := i + 1; j < len(passed); j++ {
			if dists[passed[j]] < dists[passed[best]] {
				best = j
			}
		}
		passed[i], passed[best] = passed[best], passed[i]
	}
	return passed[:maxK]
}

// topKFromSeen takes the k nearest entries of an id -> distance map.
func topKFromSeen(seen map[int]float64, k int) []SearchResult {
	if len(seen) == 0 || k <= 0 {
		return nil
	}
	h := &worstFirst{}
	for id, d := range seen {
		heap.Push(h, SearchResult{ID: id, Distance: d})
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]SearchResult, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(SearchResult)
	}
	return out
}

// worstFirst is a max-heap on (Distance, ID): the root is the entry to evict.
type worstFirst []SearchResult

func (h worstFirst) Len() int { return len(h) }
func (h worstFirst) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].ID > h[j].ID
}
func (h worstFirst) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)   { *h = append(*h, x.(SearchResult)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
