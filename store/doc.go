// Package store reads and writes point sets in the fvecs layout: every row is a
// little-endian int32 dimension followed by that many little-endian float32 values.
// Files are opened read-only through mmap.
package store
