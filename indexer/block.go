package indexer

import "github.com/ic-timon/nnbench/simd"

// DataBlock stores up to N vectors of one dimension. Layout: [v0_0..v0_d-1, v1_0.., ...]
type DataBlock struct {
	data            []float32
	dim             int
	vectorsPerBlock int
}

// NewDataBlock creates a block for vectorsPerBlock vectors of dimension dim.
func NewDataBlock(vectorsPerBlock, dim int) *DataBlock {
	if vectorsPerBlock <= 0 {
		vectorsPerBlock = 64
	}
	return &DataBlock{
		data:            make([]float32, vectorsPerBlock*dim),
		dim:             dim,
		vectorsPerBlock: vectorsPerBlock,
	}
}

// VectorsPerBlock returns the block capacity.
func (b *DataBlock) VectorsPerBlock() int {
	return b.vectorsPerBlock
}

// Vector returns a view of the vector at slot.
func (b *DataBlock) Vector(slot int) []float32 {
	start := slot * b.dim
	return b.data[start : start+b.dim]
}

// SetVector writes the vector at slot (0-based).
func (b *DataBlock) SetVector(slot int, vec []float32) {
	if slot < 0 || slot >= b.vectorsPerBlock || len(vec) != b.dim {
		return
	}
	copy(b.Vector(slot), vec)
}

// SquaredL2Batch writes the squared distances of the first n vectors to query into dst.
func (b *DataBlock) SquaredL2Batch(query []float32, n int, dst []float64) {
	for i := 0; i < n; i++ {
		dst[i] = simd.SquaredL2(query, b.Vector(i))
	}
}
