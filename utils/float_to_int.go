// SPDX-License-Identifier: EPL-2.0

// Package utils converts between integer PCM and float samples.
package utils

import "math"

// FullScale is the divisor that maps a signed PCM sample of bitDepth bits into
// [-1,1). Unknown depths fall back to 16 bits.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 1 << 7
	case 24:
		return 1 << 23
	case 32:
		return 1 << 31
	default:
		return 1 << 15
	}
}

// IntToFloat32 scales a signed PCM sample of bitDepth bits into [-1,1).
func IntToFloat32(v, bitDepth int) float32 {
	return float32(float64(v) / float64(FullScale(bitDepth)))
}

// Float32ToInt16 clamps x to [-1,1] and scales it by 32767.
func Float32ToInt16(x float32) int16 {
	x = max(-1, min(1, x))

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// FloatToPCM clamps x to [-1,1] and scales it to a signed sample of bitDepth
// bits. NaN becomes 0.
func FloatToPCM(x float64, bitDepth int) int {
	if math.IsNaN(x) {
		return 0
	}
	x = max(-1, min(1, x))

	return int(x * float64(FullScale(bitDepth)-1))
}
