package indexer

import (
	"sync"
	"sync/atomic"
)

// Tree is a dynamic descending tree supporting single-path and multi-path search.
// Add is serialized internally; searches may run concurrently with each other
// but not with Add.
type Tree struct {
	mu    sync.Mutex
	cfg   *Config
	pool  *Pool
	root  atomic.Pointer[Node]
	count atomic.Int64
}

// NewTree creates a tree. cfg.Dim must be set.
func NewTree(cfg *Config) *Tree {
	cfg = cfg.OrDefault()
	return &Tree{cfg: cfg, pool: NewPool(cfg.VectorsPerBlock, cfg.Dim)}
}

// Config returns the current configuration.
func (t *Tree) Config() *Config {
	return t.cfg
}

// Len returns the number of stored vectors.
func (t *Tree) Len() int {
	return int(t.count.Load())
}

// Add inserts a vector under id. Returns false on a dimension mismatch.
func (t *Tree) Add(vec []float32, id int) bool {
	if len(vec) != t.cfg.Dim || t.cfg.Dim == 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	root := t.root.Load()
	if root == nil {
		leaf := NewLeafNode(t.cfg)
		leaf.Add(t.pool, vec, id)
		np := new(Node)
		*np = leaf
		t.root.Store(np)
		t.count.Add(1)
		return true
	}
	// a split always leaves room on both sides, so two attempts suffice
	for attempt := 0; attempt < 2; attempt++ {
		ok, toSplit := t.addToNode(*t.root.Load(), vec, id)
		if ok {
			t.count.Add(1)
			return true
		}
		if toSplit == nil {
			return false
		}
		internal := SplitLeaf(toSplit, t.pool)
		if internal == nil || !t.replaceInSlot(&t.root, toSplit, internal) {
			return false
		}
	}
	return false
}

func (t *Tree) addToNode(n Node, vec []float32, id int) (ok bool, toSplit *LeafNode) {
	if n.IsLeaf() {
		leaf := n.(*LeafNode)
		if leaf.Add(t.pool, vec, id) {
			return true, nil
		}
		if leaf.VectorCount() >= t.cfg.SplitThreshold {
			return false, leaf
		}
		return false, nil
	}
	internal := n.(*InternalNode)
	child := internal.Child(internal.BestChild(vec))
	if child == nil {
		return false, nil
	}
	return t.addToNode(child, vec, id)
}

func (t *Tree) replaceInSlot(slot *atomic.Pointer[Node], old *LeafNode, newInternal *InternalNode) bool {
	p := slot.Load()
	if p == nil {
		return false
	}
	switch node := (*p).(type) {
	case *LeafNode:
		if node != old {
			return false
		}
		np := new(Node)
		*np = newInternal
		slot.Store(np)
		return true
	case *InternalNode:
		for i := range node.children {
			if t.replaceInSlot(node.ChildSlot(i), old, newInternal) {
				return true
			}
		}
	}
	return false
}

// Search performs single-path search and returns the top k results.
// Lowest latency; use SearchMultiPath for higher recall.
func (t *Tree) Search(query []float32, k int) []SearchResult {
	if len(query) != t.cfg.Dim || k <= 0 {
		return nil
	}
	root := t.root.Load()
	if root == nil {
		return nil
	}
	n := *root
	for !n.IsLeaf() {
		internal := n.(*InternalNode)
		n = internal.Child(internal.BestChild(query))
		if n == nil {
			return nil
		}
	}
	return n.(*LeafNode).scanTopK(query, k)
}

// Pool returns the block pool.
func (t *Tree) Pool() *Pool {
	return t.pool
}
