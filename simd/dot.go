// Package simd provides AVX-512, AVX2, SSE4, and NEON accelerated float32 vector
// kernels of arbitrary length. The best implementation is selected at init based on
// GOARCH, CGO availability and the CPU features reported by golang.org/x/sys/cpu.
package simd

var (
	dotProductImpl func(a, b []float32) float64
	squaredL2Impl  func(a, b []float32) float64
	kernelImplDesc string
)

func init() {
	// Default; dispatch files override in init() based on GOARCH and CGO.
	if dotProductImpl == nil {
		dotProductImpl = dotProductGo
		squaredL2Impl = squaredL2Go
		kernelImplDesc = "Go"
	}
}

// DotProduct computes the dot product of two float32 vectors.
// Returns 0 when the lengths differ or the vectors are empty.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return dotProductImpl(a, b)
}

// SquaredNorm returns ‖a‖².
func SquaredNorm(a []float32) float64 {
	if len(a) == 0 {
		return 0
	}
	return dotProductImpl(a, a)
}

// SquaredL2 returns ‖a − b‖². Returns 0 when the lengths differ or the vectors are empty.
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return squaredL2Impl(a, b)
}

// SquaredNorms writes the squared norm of every dim-wide row of data into dst
// and returns dst[:rows]. dst is reallocated when too small.
func SquaredNorms(data []float32, dim int, dst []float32) []float32 {
	if dim <= 0 {
		return dst[:0]
	}
	rows := len(data) / dim
	if cap(dst) < rows {
		dst = make([]float32, rows)
	}
	dst = dst[:rows]
	for i := 0; i < rows; i++ {
		dst[i] = float32(SquaredNorm(data[i*dim : (i+1)*dim]))
	}
	return dst
}

// ImplDesc returns a description of the selected kernel implementation (for logging).
func ImplDesc() string {
	if kernelImplDesc != "" {
		return kernelImplDesc
	}
	return "Go"
}

// dotProductGo is the pure Go implementation (4-way unroll plus scalar tail).
func dotProductGo(a, b []float32) float64 {
	var sum float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 := a[i+0]*b[i+0] + a[i+1]*b[i+1]
		s1 := a[i+2]*b[i+2] + a[i+3]*b[i+3]
		sum += float64(s0 + s1)
	}
	for ; i < n; i++ {
		sum += float64(a[i] * b[i])
	}
	return sum
}

func squaredL2Go(a, b []float32) float64 {
	var sum float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i+0] - b[i+0]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		sum += float64(d0*d0 + d1*d1 + d2*d2 + d3*d3)
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += float64(d * d)
	}
	return sum
}
