//go:build amd64 && cgo

package simd

import "golang.org/x/sys/cpu"

func init() {
	switch {
	case cpu.X86.HasAVX512F:
		dotProductImpl = dotProductAVX512
		squaredL2Impl = squaredL2AVX512
		kernelImplDesc = "AVX-512"
	case cpu.X86.HasAVX2:
		dotProductImpl = dotProductAVX2
		squaredL2Impl = squaredL2AVX2
		kernelImplDesc = "AVX2"
	case cpu.X86.HasSSE41:
		dotProductImpl = dotProductSSE4
		squaredL2Impl = squaredL2SSE4
		kernelImplDesc = "SSE4"
	default:
		dotProductImpl = dotProductGo
		squaredL2Impl = squaredL2Go
		kernelImplDesc = "Go"
	}
}
