//go:build arm64 && cgo

package simd

/*
#cgo CFLAGS: -O3
#include <arm_neon.h>
#include <stddef.h>

static float DotNEON(const float* a, const float* b, size_t n) {
	float32x4_t sum = vdupq_n_f32(0.0f);
	size_t i = 0;
	for (; i + 4 <= n; i += 4) {
		sum = vfmaq_f32(sum, vld1q_f32(a + i), vld1q_f32(b + i));
	}
	float s = vaddvq_f32(sum);
	for (; i < n; i++) s += a[i] * b[i];
	return s;
}

static float SquaredL2NEON(const float* a, const float* b, size_t n) {
	float32x4_t sum = vdupq_n_f32(0.0f);
	size_t i = 0;
	for (; i + 4 <= n; i += 4) {
		float32x4_t d = vsubq_f32(vld1q_f32(a + i), vld1q_f32(b + i));
		sum = vfmaq_f32(sum, d, d);
	}
	float s = vaddvq_f32(sum);
	for (; i < n; i++) {
		float d = a[i] - b[i];
		s += d * d;
	}
	return s;
}
*/
import "C"

import "unsafe"

func dotProductNEON(a, b []float32) float64 {
	return float64(C.DotNEON(
		(*C.float)(unsafe.Pointer(&a[0])),
		(*C.float)(unsafe.Pointer(&b[0])),
		C.size_t(len(a)),
	))
}

func squaredL2NEON(a, b []float32) float64 {
	return float64(C.SquaredL2NEON(
		(*C.float)(unsafe.Pointer(&a[0])),
		(*C.float)(unsafe.Pointer(&b[0])),
		C.size_t(len(a)),
	))
}
