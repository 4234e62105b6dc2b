//go:build arm64 && cgo

package simd

import "golang.org/x/sys/cpu"

func init() {
	if cpu.ARM64.HasASIMD {
		dotProductImpl = dotProductNEON
		squaredL2Impl = squaredL2NEON
		kernelImplDesc = "NEON"
	} else {
		dotProductImpl = dotProductGo
		squaredL2Impl = squaredL2Go
		kernelImplDesc = "Go"
	}
}
