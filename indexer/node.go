package indexer

import (
	"sort"
	"sync/atomic"

	"github.com/ic-timon/nnbench/simd"
)

// Node is the tree node interface.
type Node interface {
	// IsLeaf returns true if this is a leaf node.
	IsLeaf() bool
	// Centroid returns the centroid vector for routing.
	Centroid() []float32
}

// LeafNode holds up to SplitThreshold vectors in blocks.
type LeafNode struct {
	cfg         *Config
	blocks      []*DataBlock
	ids         []int
	centroid    []float32
	vectorCount int
}

// NewLeafNode creates an empty leaf node.
func NewLeafNode(cfg *Config) *LeafNode {
	cfg = cfg.OrDefault()
	maxBlocks := max(1, (cfg.SplitThreshold+cfg.VectorsPerBlock-1)/cfg.VectorsPerBlock)
	return &LeafNode{
		cfg:      cfg,
		blocks:   make([]*DataBlock, 0, maxBlocks),
		ids:      make([]int, 0, cfg.SplitThreshold),
		centroid: make([]float32, cfg.Dim),
	}
}

// IsLeaf implements Node.
func (*LeafNode) IsLeaf() bool { return true }

// Centroid implements Node.
func (n *LeafNode) Centroid() []float32 { return n.centroid }

// VectorCount returns the number of vectors in the leaf.
func (n *LeafNode) VectorCount() int { return n.vectorCount }

// Add appends a vector. Returns false if the leaf is full and must be split.
func (n *LeafNode) Add(pool *Pool, vec []float32, id int) bool {
	vpb := n.cfg.VectorsPerBlock
	if len(vec) != n.cfg.Dim || n.vectorCount >= n.cfg.SplitThreshold {
		return false
	}
	slot := n.vectorCount % vpb
	if slot == 0 {
		n.blocks = append(n.blocks, pool.AllocBlock())
	}
	n.blocks[n.vectorCount/vpb].SetVector(slot, vec)
	n.ids = append(n.ids, id)
	n.vectorCount++
	// running mean
	inv := 1 / float32(n.vectorCount)
	for i, v := range vec {
		n.centroid[i] += (v - n.centroid[i]) * inv
	}
	return true
}

// each calls fn for every stored vector in insertion order.
func (n *LeafNode) each(fn func(vec []float32, id int)) {
	vpb := n.cfg.VectorsPerBlock
	for i := 0; i < n.vectorCount; i++ {
		fn(n.blocks[i/vpb].Vector(i%vpb), n.ids[i])
	}
}

// SearchResult is a single search hit.
type SearchResult struct {
	ID       int     // identifier passed to Add
	Distance float64 // squared Euclidean distance to the query
}

// scanTopK scans every block and returns the k nearest vectors of the leaf.
func (n *LeafNode) scanTopK(query []float32, k int) []SearchResult {
	if n.vectorCount == 0 {
		return nil
	}
	vpb := n.cfg.VectorsPerBlock
	scores := make([]float64, n.vectorCount)
	offset := 0
	for _, b := range n.blocks {
		nInBlock := min(vpb, n.vectorCount-offset)
		b.SquaredL2Batch(query, nInBlock, scores[offset:offset+nInBlock])
		offset += nInBlock
	}
	return topKFromScores(n.ids, scores, k)
}

// InternalNode is an internal node with 2..N children and their routing centroids.
type InternalNode struct {
	children  []atomic.Pointer[Node]
	centroids [][]float32
}

// NewInternalNode creates an internal node.
func NewInternalNode() *InternalNode {
	return &InternalNode{}
}

// IsLeaf implements Node.
func (*InternalNode) IsLeaf() bool { return false }

// Centroid returns the first child's centroid.
func (n *InternalNode) Centroid() []float32 {
	if len(n.centroids) == 0 {
		return nil
	}
	return n.centroids[0]
}

// AddChild adds a child node.
func (n *InternalNode) AddChild(child Node) {
	var p atomic.Pointer[Node]
	np := new(Node)
	*np = child
	p.Store(np)
	n.children = append(n.children, p)
	n.centroids = append(n.centroids, copyVec(child.Centroid()))
}

// BestChild returns the index of the child whose centroid is nearest to query.
func (n *InternalNode) BestChild(query []float32) int {
	if len(n.centroids) == 0 {
		return -1
	}
	best := 0
	bestDist := simd.SquaredL2(query, n.centroids[0])
	for i := 1; i < len(n.centroids); i++ {
		if d := simd.SquaredL2(query, n.centroids[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Child returns the i-th child node.
func (n *InternalNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	p := n.children[i].Load()
	if p == nil {
		return nil
	}
	return *p
}

// ChildSlot returns the slot for the i-th child (for replaceInSlot).
func (n *InternalNode) ChildSlot(i int) *atomic.Pointer[Node] {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return &n.children[i]
}

// topKFromScores returns the k lowest scores; ties go to the lower id.
func topKFromScores(ids []int, scores []float64, k int) []SearchResult {
	if len(ids) != len(scores) || k <= 0 {
		return nil
	}
	out := make([]SearchResult, len(ids))
	for i := range ids {
		out[i] = SearchResult{ID: ids[i], Distance: scores[i]}
	}
	sortResults(out)
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func sortResults(rs []SearchResult) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Distance != rs[j].Distance {
			return rs[i].Distance < rs[j].Distance
		}
		return rs[i].ID < rs[j].ID
	})
}

func copyVec(v []float32) []float32 {
	if v == nil {
		return nil
	}
	o := make([]float32, len(v))
	copy(o, v)
	return o
}
