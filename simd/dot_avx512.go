//go:build amd64 && cgo

package simd

/*
#cgo CFLAGS: -mavx512f -O3
#include <immintrin.h>
#include <stddef.h>

static float DotAVX512(const float* a, const float* b, size_t n) {
	__m512 sum = _mm512_setzero_ps();
	size_t i = 0;
	for (; i + 16 <= n; i += 16) {
		__m512 va = _mm512_loadu_ps(a + i);
		__m512 vb = _mm512_loadu_ps(b + i);
		sum = _mm512_fmadd_ps(va, vb, sum);
	}
	float s = _mm512_reduce_add_ps(sum);
	for (; i < n; i++) s += a[i] * b[i];
	return s;
}

static float SquaredL2AVX512(const float* a, const float* b, size_t n) {
	__m512 sum = _mm512_setzero_ps();
	size_t i = 0;
	for (; i + 16 <= n; i += 16) {
		__m512 d = _mm512_sub_ps(_mm512_loadu_ps(a + i), _mm512_loadu_ps(b + i));
		sum = _mm512_fmadd_ps(d, d, sum);
	}
	float s = _mm512_reduce_add_ps(sum);
	for (; i < n; i++) {
		float d = a[i] - b[i];
		s += d * d;
	}
	return s;
}
*/
import "C"

import "unsafe"

func dotProductAVX512(a, b []float32) float64 {
	return float64(C.DotAVX512(
		(*C.float)(unsafe.Pointer(&a[0])),
		(*C.float)(unsafe.Pointer(&b[0])),
		C.size_t(len(a)),
	))
}

func squaredL2AVX512(a, b []float32) float64 {
	return float64(C.SquaredL2AVX512(
		(*C.float)(unsafe.Pointer(&a[0])),
		(*C.float)(unsafe.Pointer(&b[0])),
		C.size_t(len(a)),
	))
}
