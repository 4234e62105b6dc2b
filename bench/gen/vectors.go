// Package gen generates seeded synthetic point sets for the benchmark stages.
package gen

import (
	"math"
	"math/rand"

	"github.com/ic-timon/nnbench/nn"
)

// Gaussian returns n rows of dim standard normal values.
func Gaussian(n, dim int, seed int64) (nn.PointSet, error) {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n*dim)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return nn.NewPointSet(n, dim, data)
}

// Uniform returns n rows of dim values uniform in [lo, hi).
func Uniform(n, dim int, lo, hi float32, seed int64) (nn.PointSet, error) {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n*dim)
	for i := range data {
		data[i] = lo + (hi-lo)*rng.Float32()
	}
	return nn.NewPointSet(n, dim, data)
}

// Normalized returns n L2-normalized rows with non-negative uniform components.
func Normalized(n, dim int, seed int64) (nn.PointSet, error) {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n*dim)
	for i := 0; i < n; i++ {
		v := data[i*dim : (i+1)*dim]
		var norm float64
		for j := range v {
			x := rng.Float32()
			v[j] = x
			norm += float64(x * x)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-9 {
			v[0] = 1
			norm = 1
		}
		for j := range v {
			v[j] /= float32(norm)
		}
	}
	return nn.NewPointSet(n, dim, data)
}
