// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{name: "zero", input: 0.0, want: 0},
		{name: "max positive", input: 1.0, want: math.MaxInt16},
		{name: "max negative", input: -1.0, want: -math.MaxInt16},
		{name: "half positive", input: 0.5, want: 16383},
		{name: "small negative", input: -0.001, want: -32},
		{name: "clamp over max", input: 1.5, want: math.MaxInt16},
		{name: "clamp under min", input: -7, want: -math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, depth int
		want     float32
	}{
		{v: 16384, depth: 16, want: 0.5},
		{v: -32768, depth: 16, want: -1},
		{v: 64, depth: 8, want: 0.5},
		{v: -(1 << 22), depth: 24, want: -0.5},
		{v: 1 << 30, depth: 32, want: 0.5},
		{v: 16384, depth: 12, want: 0.5},
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.depth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.depth, got, tt.want)
		}
	}
}

func TestFloatToPCM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x     float64
		depth int
		want  int
	}{
		{x: 1, depth: 16, want: 32767},
		{x: -2, depth: 16, want: -32767},
		{x: 0.5, depth: 24, want: 4194303},
		{x: math.NaN(), depth: 16, want: 0},
	}

	for _, tt := range tests {
		if got := FloatToPCM(tt.x, tt.depth); got != tt.want {
			t.Errorf("FloatToPCM(%v, %d) = %d, want %d", tt.x, tt.depth, got, tt.want)
		}
	}
}

func BenchmarkFloat32ToInt16(b *testing.B) {
	for b.Loop() {
		_ = Float32ToInt16(0.5)
	}
}
