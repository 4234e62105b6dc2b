// Package nn computes nearest-neighbor assignments between two point sets without
// materializing the full |X|×|Y| distance matrix.
//
// Distances are squared Euclidean distances divided by the dimension d, computed with
// the expansion ‖x‖² + ‖y‖² − 2·x·y so that every tile is one BLAS pass plus two norm
// vectors. BatchedNearestNeighbor additionally divides every column j by
// alpha + min_i dist(X_i, Y_j), which penalizes candidates that are close to many
// queries at once.
//
// Quick start:
//
//	x, _ := nn.PointSetFromRows(queries)
//	y, _ := nn.PointSetFromRows(candidates)
//	idx, err := nn.BatchedNearestNeighbor(x, y, 1.0, 256)
//
// Batches cover every row exactly once; the final batch may be shorter than b.
// Ties in the argmin resolve to the lowest candidate index.
package nn
