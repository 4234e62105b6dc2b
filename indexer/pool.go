package indexer

import "sync"

// Pool allocates the blocks of one tree and tracks how many are live.
type Pool struct {
	mu              sync.Mutex
	blocks          int
	vectorsPerBlock int
	dim             int
}

// NewPool creates a block pool for dim-dimensional vectors.
func NewPool(vectorsPerBlock, dim int) *Pool {
	if vectorsPerBlock <= 0 {
		vectorsPerBlock = 64
	}
	return &Pool{vectorsPerBlock: vectorsPerBlock, dim: dim}
}

// AllocBlock allocates a new block.
func (p *Pool) AllocBlock() *DataBlock {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks++
	return NewDataBlock(p.vectorsPerBlock, p.dim)
}

// Release accounts for n blocks dropped by a split.
func (p *Pool) Release(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks -= n
}

// BlockCount returns the number of live blocks.
func (p *Pool) BlockCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks
}

// Bytes returns the vector payload held by live blocks.
func (p *Pool) Bytes() int64 {
	return int64(p.BlockCount()) * int64(p.vectorsPerBlock) * int64(p.dim) * 4
}
