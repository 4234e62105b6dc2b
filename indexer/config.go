package indexer

// Config holds index parameters.
type Config struct {
	Dim             int     // vector dimension, required
	VectorsPerBlock int     // vectors per block, default 64
	SplitThreshold  int     // leaf split threshold, default 512
	SearchWidth     int     // multi-path search width, default 3
	PruneEpsilon    float64 // skip branches farther than (1+epsilon) × nearest branch, default 0.1
	Seed            int64   // k-means seed for leaf splits
}

// DefaultConfig returns the default configuration for dim-dimensional vectors.
func DefaultConfig(dim int) *Config {
	return &Config{
		Dim:             dim,
		VectorsPerBlock: 64,
		SplitThreshold:  512,
		SearchWidth:     3,
		PruneEpsilon:    0.1,
		Seed:            1,
	}
}

// OrDefault normalizes c, filling zero fields with defaults.
func (c *Config) OrDefault() *Config {
	if c == nil {
		return DefaultConfig(0)
	}
	if c.VectorsPerBlock <= 0 {
		c.VectorsPerBlock = 64
	}
	if c.SplitThreshold <= 0 {
		c.SplitThreshold = 512
	}
	if c.SplitThreshold < 2 {
		c.SplitThreshold = 2
	}
	if c.SearchWidth <= 0 {
		c.SearchWidth = 3
	}
	if c.PruneEpsilon < 0 {
		c.PruneEpsilon = 0.1
	}
	return c
}
