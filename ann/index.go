// Package ann wraps the approximate nearest-neighbor indexes the benchmark
// compares against the exact batched search: flat, ivf, lsh, hnsw and tree.
//
// Every index follows the same train, add, search lifecycle. Result rows hold
// candidate indices in ascending distance order, padded with -1 when fewer than k
// candidates are reachable.
package ann

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ic-timon/nnbench/nn"
)

var (
	// ErrUnknownIndex is returned by New for an unregistered kind.
	ErrUnknownIndex = errors.New("ann: unknown index")
	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("ann: index is empty")
	// ErrNotTrained is returned when a trained index is used before Train.
	ErrNotTrained = errors.New("ann: index is not trained")
)

// Index is an approximate nearest-neighbor index over squared Euclidean distance.
type Index interface {
	Name() string
	// Train fits the index to data. A no-op for indexes without a training step.
	Train(data nn.PointSet) error
	// Add appends data; ids continue from Len.
	Add(data nn.PointSet) error
	// Search returns k candidate indices per query row.
	Search(queries nn.PointSet, k int) ([][]int, error)
	Len() int
}

// Options configures index construction. Zero fields take defaults.
type Options struct {
	NList     int   // ivf: number of coarse cells, default floor(sqrt(training rows))
	NProbe    int   // ivf: cells scanned per query, default 2
	NBits     int   // lsh: code length, default dim
	HNSWM     int   // hnsw: max neighbors per node, default 16
	HNSWEf    int   // hnsw: search candidate list size, default 20
	Seed      int64 // ivf/lsh/hnsw/tree randomness
	BatchSize int   // flat: query batch size, default 256
	Workers   int   // parallel query workers, default 1
}

func (o Options) withDefaults() Options {
	if o.NProbe <= 0 {
		o.NProbe = 2
	}
	if o.HNSWM <= 0 {
		o.HNSWM = 16
	}
	if o.HNSWEf <= 0 {
		o.HNSWEf = 20
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

type factory func(dim int, o Options) Index

var registry = map[string]factory{
	"flat": func(dim int, o Options) Index { return newFlat(dim, o) },
	"ivf":  func(dim int, o Options) Index { return newIVF(dim, o) },
	"lsh":  func(dim int, o Options) Index { return newLSH(dim, o) },
	"hnsw": func(dim int, o Options) Index { return newHNSW(dim, o) },
	"tree": func(dim int, o Options) Index { return newTree(dim, o) },
}

// Kinds returns the registered index kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New creates an index of the given kind for dim-dimensional vectors.
func New(kind string, dim int, o Options) (Index, error) {
	f, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, kind)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", nn.ErrInvalidInput, dim)
	}
	return f(dim, o.withDefaults()), nil
}

// NearestIndices trains idx on y, adds y, searches x and returns the first result
// column together with the full k-column result.
func NearestIndices(idx Index, x, y nn.PointSet, k int) ([]int, [][]int, error) {
	if err := idx.Train(y); err != nil {
		return nil, nil, fmt.Errorf("%s: train: %w", idx.Name(), err)
	}
	if err := idx.Add(y); err != nil {
		return nil, nil, fmt.Errorf("%s: add: %w", idx.Name(), err)
	}
	all, err := idx.Search(x, k)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: search: %w", idx.Name(), err)
	}
	first := make([]int, len(all))
	for i, row := range all {
		first[i] = row[0]
	}
	return first, all, nil
}

func checkDim(ps nn.PointSet, dim int) error {
	if ps.Len() == 0 {
		return fmt.Errorf("%w: point set is empty", nn.ErrInvalidInput)
	}
	if ps.Dim() != dim {
		return fmt.Errorf("%w: index has dimension %d, got %d", nn.ErrInvalidInput, dim, ps.Dim())
	}
	return nil
}

func checkSearch(queries nn.PointSet, dim, size, k int) error {
	if size == 0 {
		return ErrEmptyIndex
	}
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", nn.ErrInvalidInput, k)
	}
	return checkDim(queries, dim)
}

// pad extends row to k entries with -1.
func pad(row []int, k int) []int {
	for len(row) < k {
		row = append(row, -1)
	}
	return row
}
