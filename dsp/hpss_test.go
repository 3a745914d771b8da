// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/internal/audiotest"
)

func TestSoftMask(t *testing.T) {
	t.Parallel()

	x := mat.NewDense(1, 4, []float64{3, 0, 1, 0})
	ref := mat.NewDense(1, 4, []float64{1, 2, 1, 0})

	split := SoftMask(x, ref, 2, true)
	want := []float64{0.9, 0, 0.5, 0.5}
	for j, w := range want {
		if math.Abs(split.At(0, j)-w) > 1e-12 {
			t.Errorf("mask[%d] = %v, want %v", j, split.At(0, j), w)
		}
	}

	if got := SoftMask(x, ref, 2, false).At(0, 3); got != 0 {
		t.Errorf("unsplit zero mask = %v, want 0", got)
	}
}

func TestHPSS_MasksAreComplementary(t *testing.T) {
	t.Parallel()

	stft, err := NewSTFT(512, 128)
	if err != nil {
		t.Fatal(err)
	}

	y := audiotest.SineSamples(8000, 16000, 440, 0.5)
	for i := 0; i < len(y); i += 1000 {
		y[i] += 1 // clicks
	}

	spec := stft.Forward(y)
	h, p, err := HPSS(spec, DefaultHPSSConfig())
	if err != nil {
		t.Fatal(err)
	}

	for b := range spec {
		for f := range spec[b] {
			sum := h[b][f] + p[b][f]
			if d := sum - spec[b][f]; math.Hypot(real(d), imag(d)) > 1e-9 {
				t.Fatalf("h+p differs from the input at bin %d frame %d", b, f)
			}
		}
	}
}

func TestHarmonic_PureTone(t *testing.T) {
	t.Parallel()

	stft, err := NewSTFT(2048, 512)
	if err != nil {
		t.Fatal(err)
	}

	y := audiotest.SineSamples(32000, 16000, 440, 0.5)
	harm, err := Harmonic(y, stft, DefaultHPSSConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(harm) != len(y) {
		t.Fatalf("len = %d, want %d", len(harm), len(y))
	}

	// a steady tone is almost entirely harmonic away from the edges
	mid := func(s []float64) []float64 { return s[4000 : len(s)-4000] }
	ratio := floats.Norm(mid(harm), 2) / floats.Norm(mid(y), 2)
	if ratio < 0.95 || ratio > 1.01 {
		t.Errorf("harmonic energy ratio = %v, want about 1", ratio)
	}
}

func TestHPSS_Invalid(t *testing.T) {
	t.Parallel()

	if _, _, err := HPSS(Spectrum{{0}}, HPSSConfig{Kernel: 31, Power: 2, Margin: 0.5}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("HPSS(margin 0.5) error = %v, want ErrInvalidSize", err)
	}
}
