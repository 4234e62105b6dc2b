package indexer

import "github.com/ic-timon/nnbench/kmeans"

const kMeansRounds = 8

// SplitLeaf splits a full leaf with 2-means and returns the new InternalNode.
// Returns nil if the leaf is not full or all vectors land in one cluster.
func SplitLeaf(leaf *LeafNode, pool *Pool) *InternalNode {
	cfg := leaf.cfg.OrDefault()
	if leaf.VectorCount() < cfg.SplitThreshold {
		return nil
	}
	flat := make([]float32, 0, leaf.vectorCount*cfg.Dim)
	ids := make([]int, 0, leaf.vectorCount)
	leaf.each(func(vec []float32, id int) {
		flat = append(flat, vec...)
		ids = append(ids, id)
	})
	km := kmeans.Fit(flat, cfg.Dim, 2, kMeansRounds, cfg.Seed+int64(ids[0]))
	left := NewLeafNode(cfg)
	right := NewLeafNode(cfg)
	for i, a := range km.Assign {
		vec := flat[i*cfg.Dim : (i+1)*cfg.Dim]
		if a == 0 {
			left.Add(pool, vec, ids[i])
		} else {
			right.Add(pool, vec, ids[i])
		}
	}
	if left.VectorCount() == 0 || right.VectorCount() == 0 {
		// duplicates: halve by insertion order so the tree still makes progress
		left, right = NewLeafNode(cfg), NewLeafNode(cfg)
		half := len(ids) / 2
		for i := range ids {
			vec := flat[i*cfg.Dim : (i+1)*cfg.Dim]
			if i < half {
				left.Add(pool, vec, ids[i])
			} else {
				right.Add(pool, vec, ids[i])
			}
		}
	}
	pool.Release(len(leaf.blocks))
	internal := NewInternalNode()
	internal.AddChild(left)
	internal.AddChild(right)
	return internal
}
