// Package indexer provides a density-adaptive routing tree for approximate
// nearest-neighbor search under squared Euclidean distance.
//
// Leaves hold up to SplitThreshold vectors in fixed-size blocks. A full leaf is split
// with 2-means into an internal node whose children are routed by centroid distance.
//
// Quick start:
//
//	cfg := indexer.DefaultConfig(dim)
//	tree := indexer.NewTree(cfg)
//	tree.Add(vec, id)
//	results := tree.SearchMultiPath(query, k)
package indexer
